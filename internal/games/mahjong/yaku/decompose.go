package yaku

import (
	"sort"

	"boardkeeper/internal/games/mahjong/shape"
)

// group is one decomposed set: three tiles forming a run or triplet, or a
// two-tile pair.
type group struct {
	tiles []shape.Tile
	isRun bool
}

// decomposition is one way of splitting a complete concealed hand (plus its
// melds, appended as already-formed groups) into four sets and a pair. Only
// the first decomposition found is used: pair candidates are tried from the
// lowest sorted tile up, and triplets before runs, so an ambiguous hand
// takes whichever split the search reaches first, which can change its han
// as well as its fu in this simplified scorer.
type decomposition struct {
	groups []group
	pair   shape.Tile
}

func decomposeHand(concealed []shape.Tile, furu []shape.Furu) (decomposition, bool) {
	sorted := sortedCopy(concealed)
	var meldGroups []group
	for _, f := range furu {
		meldGroups = append(meldGroups, group{tiles: append([]shape.Tile(nil), f.Tiles...), isRun: f.Kind == shape.FuruChi})
	}
	d, ok := decomposeConcealed(sorted)
	if !ok {
		return decomposition{}, false
	}
	d.groups = append(d.groups, meldGroups...)
	return d, true
}

func decomposeConcealed(tiles []shape.Tile) (decomposition, bool) {
	if len(tiles) == 0 {
		return decomposition{}, true
	}
	for i, cand := range tiles {
		if i > 0 && tiles[i-1].Suit == cand.Suit && tiles[i-1].Num == cand.Num {
			continue
		}
		if countOf(tiles, cand) >= 2 {
			rest := removeN(tiles, cand, 2)
			if d, ok := decomposeSets(rest); ok {
				d.pair = cand
				return d, true
			}
		}
	}
	return decomposition{}, false
}

func decomposeSets(tiles []shape.Tile) (decomposition, bool) {
	if len(tiles) == 0 {
		return decomposition{}, true
	}
	first := tiles[0]
	if countOf(tiles, first) >= 3 {
		rest := removeN(tiles, first, 3)
		if d, ok := decomposeSets(rest); ok {
			d.groups = append([]group{{tiles: []shape.Tile{first, first, first}}}, d.groups...)
			return d, true
		}
	}
	if first.Suit != shape.Honor && first.Num <= 7 {
		second := shape.Tile{Suit: first.Suit, Num: first.Num + 1}
		third := shape.Tile{Suit: first.Suit, Num: first.Num + 2}
		if contains(tiles, second) && contains(tiles, third) {
			rest := removeOne(removeOne(tiles[1:], second), third)
			if d, ok := decomposeSets(rest); ok {
				d.groups = append([]group{{tiles: []shape.Tile{first, second, third}, isRun: true}}, d.groups...)
				return d, true
			}
		}
	}
	return decomposition{}, false
}

func sortedCopy(tiles []shape.Tile) []shape.Tile {
	out := append([]shape.Tile(nil), tiles...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Suit != out[j].Suit {
			return out[i].Suit < out[j].Suit
		}
		return out[i].Num < out[j].Num
	})
	return out
}

func countOf(tiles []shape.Tile, t shape.Tile) int {
	n := 0
	for _, x := range tiles {
		if x.Suit == t.Suit && x.Num == t.Num {
			n++
		}
	}
	return n
}

func contains(tiles []shape.Tile, t shape.Tile) bool { return countOf(tiles, t) > 0 }

func removeN(tiles []shape.Tile, t shape.Tile, n int) []shape.Tile {
	out := make([]shape.Tile, 0, len(tiles))
	removed := 0
	for _, x := range tiles {
		if removed < n && x.Suit == t.Suit && x.Num == t.Num {
			removed++
			continue
		}
		out = append(out, x)
	}
	return out
}

func removeOne(tiles []shape.Tile, t shape.Tile) []shape.Tile { return removeN(tiles, t, 1) }

func isSevenPairs(tiles []shape.Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	counts := map[shape.Tile]int{}
	for _, t := range tiles {
		t.Red = false
		counts[t]++
	}
	if len(counts) != 7 {
		return false
	}
	for _, c := range counts {
		if c != 2 {
			return false
		}
	}
	return true
}

func isThirteenOrphans(tiles []shape.Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	required := map[shape.Tile]int{}
	for _, suit := range []shape.Suit{shape.Man, shape.Pin, shape.Sou} {
		required[shape.Tile{Suit: suit, Num: 1}] = 0
		required[shape.Tile{Suit: suit, Num: 9}] = 0
	}
	for num := shape.East; num <= shape.Red; num++ {
		required[shape.Tile{Suit: shape.Honor, Num: num}] = 0
	}
	pairSeen := false
	for _, t := range tiles {
		t.Red = false
		count, ok := required[t]
		if !ok {
			return false
		}
		if count == 1 {
			if pairSeen {
				return false
			}
			pairSeen = true
		}
		required[t] = count + 1
	}
	return pairSeen
}
