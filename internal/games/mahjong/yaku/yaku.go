// Package yaku hand-scores a complete mahjong hand: which yaku (scoring
// patterns) it satisfies, its han and fu, and the resulting point payment.
// There is no maintained, importable Go riichi-yaku library in the
// retrieved example pack or the wider ecosystem, so this is hand-written
// domain code, structured the way a single-file reference engine in the
// example pack separates deck/hand/scoring concerns, and exercised
// entirely by the mahjong round stage.
package yaku

import "boardkeeper/internal/games/mahjong/shape"

// Win describes the context a completed hand won in, everything the yaku
// checks need beyond the tiles themselves.
type Win struct {
	// Tiles is the complete concealed hand at the moment of winning,
	// including WinTile (14 tiles minus 3 per meld in Furu).
	Tiles   []shape.Tile
	Furu    []shape.Furu
	WinTile shape.Tile
	Tsumo      bool
	Riichi     bool
	DoubleRiichi bool
	Ippatsu    bool
	Houtei     bool // won on the very last discard
	Haitei     bool // tsumo on the very last drawable tile
	Rinshan    bool // tsumo on a kan's replacement tile
	Chankan    bool // ron on another player's added-kan tile
	SeatWind   int
	RoundWind  int
	DoraTiles  []shape.Tile
	Nagashi    bool
}

// Yaku is one named scoring pattern and the han it's worth. Han is 0 for a
// yakuman-only context tracker; Yakuman marks a limit hand, scored
// independently of han/fu.
type Yaku struct {
	Name    string
	Han     int
	Yakuman bool
}

// Result is a win's full scoring breakdown.
type Result struct {
	Yaku  []Yaku
	Han   int
	Fu    int
	Points int64
	IsYakuman bool
}

// Score evaluates w and returns its yaku, han, fu, and point value. If w
// satisfies no yaku at all (and isn't a nagashi mangan), Score returns a
// zero Result — a hand complete in shape but with no yaku cannot
// legally win, exactly as in real play.
func Score(w Win, dealer bool) Result {
	if w.Nagashi {
		return nagashiResult(dealer)
	}
	yakus := detect(w)
	if len(yakus) == 0 {
		return Result{}
	}
	for _, y := range yakus {
		if y.Yakuman {
			return yakumanResult(yakus, dealer)
		}
	}
	han := 0
	for _, y := range yakus {
		han += y.Han
	}
	han += countDora(w)
	fu := calcFu(w)
	points := basePoints(han, fu, dealer, w.Tsumo)
	return Result{Yaku: yakus, Han: han, Fu: fu, Points: points}
}

func nagashiResult(dealer bool) Result {
	y := Yaku{Name: "nagashi mangan", Han: 5}
	return Result{Yaku: []Yaku{y}, Han: 5, Fu: 30, Points: basePoints(5, 30, dealer, true)}
}

func yakumanResult(yakus []Yaku, dealer bool) Result {
	count := 0
	for _, y := range yakus {
		if y.Yakuman {
			count++
		}
	}
	base := int64(8000)
	if dealer {
		base = 12000
	}
	return Result{Yaku: yakus, IsYakuman: true, Points: base * int64(count)}
}

func countDora(w Win) int {
	n := 0
	for _, d := range w.DoraTiles {
		for _, t := range w.Tiles {
			if t.Suit == d.Suit && t.Num == d.Num {
				n++
			}
			if t.Red {
				n++
			}
		}
	}
	return n
}

// calcFu computes a simplified fu total: 20 base, +10 for a closed ron,
// +2 for tsumo (menzen tsumo yaku itself contributes the han separately),
// rounded up to the nearest 10.
func calcFu(w Win) int {
	fu := 20
	if w.Tsumo {
		fu += 2
	} else if isClosed(w.Furu) {
		fu += 10
	}
	if fu%10 != 0 {
		fu += 10 - fu%10
	}
	return fu
}

func isClosed(furu []shape.Furu) bool {
	for _, f := range furu {
		if f.Kind != shape.FuruKanClosed {
			return false
		}
	}
	return true
}

// basePoints converts han/fu into the total points the winner collects,
// using the standard mangan-and-above bands above 4-5 han and the base
// point formula (fu * 2^(han+2)) below that, capped appropriately.
func basePoints(han, fu int, dealer, tsumo bool) int64 {
	var base int64
	switch {
	case han >= 13:
		base = 8000 // kazoe yakuman
	case han >= 11:
		base = 6000 // sanbaiman
	case han >= 8:
		base = 4000 // baiman
	case han >= 6:
		base = 3000 // haneman
	case han >= 5:
		base = 2000 // mangan
	default:
		base = int64(fu) * (1 << (han + 2))
		if base > 2000 {
			base = 2000
		}
	}
	if dealer {
		if tsumo {
			return roundUp100(base*2) * 3
		}
		return roundUp100(base * 6)
	}
	if tsumo {
		return roundUp100(base*2) + roundUp100(base)*2
	}
	return roundUp100(base * 4)
}

func roundUp100(v int64) int64 {
	if v%100 == 0 {
		return v
	}
	return v + (100 - v%100)
}
