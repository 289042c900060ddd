package mahjong

import "sort"

// IsWinningHand reports whether concealed (which, together with furu, must
// total exactly 14 tiles across hand+melds) forms a complete hand: four
// sets and a pair, seven distinct pairs, or the thirteen-orphans shape.
func IsWinningHand(concealed []Tile, furu []Furu) bool {
	total := len(concealed)
	for _, f := range furu {
		if f.Kind == FuruChi || f.Kind == FuruPon {
			total += 3
		} else {
			total += 3 // a kan counts as one set of three for hand-completion purposes
		}
	}
	if total != 14 {
		return false
	}
	if len(furu) == 0 {
		if isSevenPairs(concealed) || isThirteenOrphans(concealed) {
			return true
		}
	}
	return canDecomposeIntoSets(sortedCopy(concealed), true)
}

func sortedCopy(tiles []Tile) []Tile {
	out := append([]Tile(nil), tiles...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Suit != out[j].Suit {
			return out[i].Suit < out[j].Suit
		}
		return out[i].Num < out[j].Num
	})
	return out
}

func isSevenPairs(tiles []Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	counts := map[Tile]int{}
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

func isThirteenOrphans(tiles []Tile) bool {
	if len(tiles) != 14 {
		return false
	}
	required := map[Tile]int{}
	for _, suit := range []Suit{Man, Pin, Sou} {
		required[Tile{Suit: suit, Num: 1}] = 0
		required[Tile{Suit: suit, Num: 9}] = 0
	}
	for num := East; num <= Red; num++ {
		required[Tile{Suit: Honor, Num: num}] = 0
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

// canDecomposeIntoSets recursively peels a pair (once, when needPair) and
// runs/triplets from a sorted tile slice until none remain.
func canDecomposeIntoSets(tiles []Tile, needPair bool) bool {
	if len(tiles) == 0 {
		return true
	}
	first := tiles[0]
	if needPair && countOf(tiles, first) >= 2 {
		if canDecomposeIntoSets(removeN(tiles, first, 2), false) {
			return true
		}
	}
	if countOf(tiles, first) >= 3 {
		if canDecomposeIntoSets(removeN(tiles, first, 3), needPair) {
			return true
		}
	}
	if first.Suit != Honor {
		second := Tile{Suit: first.Suit, Num: first.Num + 1}
		third := Tile{Suit: first.Suit, Num: first.Num + 2}
		if first.Num <= 7 && contains(tiles, second) && contains(tiles, third) {
			rest := removeOne(removeOne(tiles[1:], second), third)
			if canDecomposeIntoSets(rest, needPair) {
				return true
			}
		}
	}
	return false
}

func countOf(tiles []Tile, t Tile) int {
	n := 0
	for _, x := range tiles {
		if x.Suit == t.Suit && x.Num == t.Num {
			n++
		}
	}
	return n
}

func contains(tiles []Tile, t Tile) bool { return countOf(tiles, t) > 0 }

func removeN(tiles []Tile, t Tile, n int) []Tile {
	out := make([]Tile, 0, len(tiles))
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

func removeOne(tiles []Tile, t Tile) []Tile { return removeN(tiles, t, 1) }
