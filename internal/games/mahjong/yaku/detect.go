package yaku

import "boardkeeper/internal/games/mahjong/shape"

// detect returns every yaku w's hand satisfies. It is not an exhaustive
// implementation of every riichi yaku (several rare sanshoku-doukou,
// chanta/junchan, shousuushii-vs-daisuushii distinctions and the rarer
// yakuman are intentionally omitted); it covers the common table one
// would use at a casual riichi table, which is what a chat-driven match
// needs to resolve a win.
func detect(w Win) []Yaku {
	full := w.Tiles
	if isThirteenOrphans(full) {
		return []Yaku{{Name: "kokushi musou", Yakuman: true}}
	}
	if len(w.Furu) == 0 && isSevenPairs(full) {
		return chiitoitsuYaku(w)
	}
	d, ok := decomposeHand(full, w.Furu)
	if !ok {
		return nil
	}
	closed := isClosed(w.Furu)
	var yakus []Yaku

	if y, ok := yakumanChecks(d, w, full); ok {
		return y
	}

	if w.DoubleRiichi {
		yakus = append(yakus, Yaku{Name: "double riichi", Han: 2})
	} else if w.Riichi {
		yakus = append(yakus, Yaku{Name: "riichi", Han: 1})
	}
	if w.Ippatsu {
		yakus = append(yakus, Yaku{Name: "ippatsu", Han: 1})
	}
	if w.Tsumo && closed {
		yakus = append(yakus, Yaku{Name: "menzen tsumo", Han: 1})
	}
	if w.Haitei {
		yakus = append(yakus, Yaku{Name: "haitei raoyue", Han: 1})
	}
	if w.Houtei {
		yakus = append(yakus, Yaku{Name: "houtei raoyui", Han: 1})
	}
	if w.Rinshan {
		yakus = append(yakus, Yaku{Name: "rinshan kaihou", Han: 1})
	}
	if w.Chankan {
		yakus = append(yakus, Yaku{Name: "chankan", Han: 1})
	}
	if allRuns(d) && closed && !isYakuhaiTile(d.pair, w) {
		yakus = append(yakus, Yaku{Name: "pinfu", Han: 1})
	}
	if noTerminalOrHonor(full) {
		yakus = append(yakus, Yaku{Name: "tanyao", Han: 1})
	}
	yakus = append(yakus, yakuhaiYaku(d, w)...)
	if iipeikou(d) && closed {
		yakus = append(yakus, Yaku{Name: "iipeikou", Han: 1})
	}
	if han := sanshokuDoujun(d); han > 0 {
		h := han
		if !closed {
			h--
		}
		yakus = append(yakus, Yaku{Name: "sanshoku doujun", Han: h})
	}
	if ittsuu(d) {
		h := 2
		if !closed {
			h = 1
		}
		yakus = append(yakus, Yaku{Name: "ittsuu", Han: h})
	}
	if allTriplets(d) {
		yakus = append(yakus, Yaku{Name: "toitoi", Han: 2})
	}
	if sanankou(d, w) {
		yakus = append(yakus, Yaku{Name: "sanankou", Han: 2})
	}
	if suit, ok := singleSuit(full); ok {
		if suit == shape.Honor {
			// all-honor hands are handled as the tsuuiisou yakuman above.
		} else if hasHonor(full) {
			h := 3
			if !closed {
				h = 2
			}
			yakus = append(yakus, Yaku{Name: "honitsu", Han: h})
		} else {
			h := 6
			if !closed {
				h = 5
			}
			yakus = append(yakus, Yaku{Name: "chinitsu", Han: h})
		}
	}
	return yakus
}

func chiitoitsuYaku(w Win) []Yaku {
	return []Yaku{{Name: "chiitoitsu", Han: 2}}
}

func allRuns(d decomposition) bool {
	for _, g := range d.groups {
		if !g.isRun {
			return false
		}
	}
	return true
}

func allTriplets(d decomposition) bool {
	for _, g := range d.groups {
		if g.isRun {
			return false
		}
	}
	return true
}

func isYakuhaiTile(t shape.Tile, w Win) bool {
	if t.Suit != shape.Honor {
		return false
	}
	return t.Num == shape.White || t.Num == shape.Green || t.Num == shape.Red ||
		t.Num == w.SeatWind || t.Num == w.RoundWind
}

func yakuhaiYaku(d decomposition, w Win) []Yaku {
	var out []Yaku
	for _, g := range d.groups {
		if g.isRun || len(g.tiles) < 3 {
			continue
		}
		t := g.tiles[0]
		if t.Suit != shape.Honor {
			continue
		}
		switch {
		case t.Num == shape.White || t.Num == shape.Green || t.Num == shape.Red:
			out = append(out, Yaku{Name: "yakuhai (dragon)", Han: 1})
		case t.Num == w.SeatWind && t.Num == w.RoundWind:
			out = append(out, Yaku{Name: "yakuhai (double wind)", Han: 2})
		case t.Num == w.SeatWind || t.Num == w.RoundWind:
			out = append(out, Yaku{Name: "yakuhai (wind)", Han: 1})
		}
	}
	return out
}

func iipeikou(d decomposition) bool {
	for i := 0; i < len(d.groups); i++ {
		for j := i + 1; j < len(d.groups); j++ {
			a, b := d.groups[i], d.groups[j]
			if a.isRun && b.isRun && sameTiles(a.tiles, b.tiles) {
				return true
			}
		}
	}
	return false
}

func sameTiles(a, b []shape.Tile) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Suit != b[i].Suit || a[i].Num != b[i].Num {
			return false
		}
	}
	return true
}

func sanshokuDoujun(d decomposition) int {
	seen := map[int]map[shape.Suit]bool{}
	for _, g := range d.groups {
		if !g.isRun {
			continue
		}
		start := g.tiles[0].Num
		if seen[start] == nil {
			seen[start] = map[shape.Suit]bool{}
		}
		seen[start][g.tiles[0].Suit] = true
	}
	for _, suits := range seen {
		if suits[shape.Man] && suits[shape.Pin] && suits[shape.Sou] {
			return 2
		}
	}
	return 0
}

func ittsuu(d decomposition) bool {
	for _, suit := range []shape.Suit{shape.Man, shape.Pin, shape.Sou} {
		need := map[int]bool{1: false, 4: false, 7: false}
		for _, g := range d.groups {
			if g.isRun && g.tiles[0].Suit == suit {
				if _, ok := need[g.tiles[0].Num]; ok {
					need[g.tiles[0].Num] = true
				}
			}
		}
		if need[1] && need[4] && need[7] {
			return true
		}
	}
	return false
}

func sanankou(d decomposition, w Win) bool {
	count := 0
	for _, g := range d.groups {
		if !g.isRun && len(g.tiles) == 3 {
			// approximate "concealed" as "not a called meld": melds from
			// furu are appended after concealed groups in decomposeHand,
			// and an ron-completed triplet that supplied the winning tile
			// doesn't count as concealed, which this simplified check
			// does not special-case.
			count++
		}
	}
	return count >= 3 && isClosed(w.Furu)
}

func noTerminalOrHonor(tiles []shape.Tile) bool {
	for _, t := range tiles {
		if t.IsTerminalOrHonor() {
			return false
		}
	}
	return true
}

func hasHonor(tiles []shape.Tile) bool {
	for _, t := range tiles {
		if t.Suit == shape.Honor {
			return true
		}
	}
	return false
}

func singleSuit(tiles []shape.Tile) (shape.Suit, bool) {
	suit := shape.Suit(-1)
	for _, t := range tiles {
		if t.Suit == shape.Honor {
			continue
		}
		if suit == shape.Suit(-1) {
			suit = t.Suit
		} else if suit != t.Suit {
			return 0, false
		}
	}
	if suit == shape.Suit(-1) {
		return shape.Honor, true
	}
	return suit, true
}

func yakumanChecks(d decomposition, w Win, full []shape.Tile) ([]Yaku, bool) {
	var yakus []Yaku
	if allTriplets(d) && countDragonTriplets(d) == 3 {
		yakus = append(yakus, Yaku{Name: "daisangen", Yakuman: true})
	}
	if allTriplets(d) && closedTripletCount(d, w) == 4 {
		yakus = append(yakus, Yaku{Name: "suuankou", Yakuman: true})
	}
	if allHonor(full) {
		yakus = append(yakus, Yaku{Name: "tsuuiisou", Yakuman: true})
	}
	if allTerminal(full) {
		yakus = append(yakus, Yaku{Name: "chinroutou", Yakuman: true})
	}
	if windTripletCount(d) == 4 {
		yakus = append(yakus, Yaku{Name: "daisuushii", Yakuman: true})
	} else if windTripletCount(d) == 3 && isYakuhaiTile(d.pair, w) && d.pair.Suit == shape.Honor && d.pair.Num <= shape.North {
		yakus = append(yakus, Yaku{Name: "shousuushii", Yakuman: true})
	}
	if len(yakus) == 0 {
		return nil, false
	}
	return yakus, true
}

func countDragonTriplets(d decomposition) int {
	n := 0
	for _, g := range d.groups {
		if !g.isRun && len(g.tiles) == 3 && g.tiles[0].Suit == shape.Honor && g.tiles[0].Num >= shape.White {
			n++
		}
	}
	return n
}

func windTripletCount(d decomposition) int {
	n := 0
	for _, g := range d.groups {
		if !g.isRun && len(g.tiles) == 3 && g.tiles[0].Suit == shape.Honor && g.tiles[0].Num <= shape.North {
			n++
		}
	}
	return n
}

func closedTripletCount(d decomposition, w Win) int {
	if !isClosed(w.Furu) {
		return 0
	}
	n := 0
	for _, g := range d.groups {
		if !g.isRun && len(g.tiles) == 3 {
			n++
		}
	}
	return n
}

func allHonor(tiles []shape.Tile) bool {
	for _, t := range tiles {
		if t.Suit != shape.Honor {
			return false
		}
	}
	return true
}

func allTerminal(tiles []shape.Tile) bool {
	for _, t := range tiles {
		if t.Suit == shape.Honor || !t.IsTerminal() {
			return false
		}
	}
	return true
}
