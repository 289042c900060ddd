package mahjong

// ActionState is the per-seat state machine driving what a seat may do next
// within a go-around, ported from sync_mahjong.h's ActionState enum
// (ROUND_BEGIN, AFTER_CHI_PON, AFTER_GET_TILE, AFTER_KAN, AFTER_KAN_CAN_NARI,
// AFTER_KIRI, ROUND_OVER, NOTIFIED_RON).
type ActionState int

const (
	// StateRoundBegin: the seat hasn't acted yet this go-around. It may
	// call chi/pon/kan on the seat ahead of it, or draw.
	StateRoundBegin ActionState = iota
	// StateAfterChiPon: the seat just took a chi or pon; it must discard.
	StateAfterChiPon
	// StateAfterGetTile: the seat just drew; it may discard, kan, or
	// (with a closed hand) declare riichi.
	StateAfterGetTile
	// StateAfterKan: the seat just completed a kan from a prior
	// AFTER_GET_TILE/AFTER_KAN and drew the rinshan replacement; same
	// options as AFTER_GET_TILE.
	StateAfterKan
	// StateAfterKanCanNari: the seat drew a rinshan tile after a kan
	// called from ROUND_BEGIN/AFTER_KIRI; it may discard or kan again.
	StateAfterKanCanNari
	// StateAfterKiri: the seat just discarded; it is waiting to see
	// whether any other seat calls on that discard.
	StateAfterKiri
	// StateRoundOver: the seat is done acting for this go-around.
	StateRoundOver
	// StateNotifiedRon: the synchronized ron-stage barrier has opened and
	// this seat has a legal ron waiting to be declared or declined.
	StateNotifiedRon
)

// action identifies the event a transition table entry is keyed on.
type action int

const (
	actDraw action = iota
	actKiri
	actChi
	actPon
	actKan
	actTsumo
	actRon
	actNineTerminals
	actOver
)

// transitions is the (state, event) -> new-state guard table. round.go's
// draw, discard, own-hand kan, tsumo, nine-terminals, ron and end-of-turn
// steps call Player.transition; only handleDiscard rejects the action when
// the table has no entry, the others apply the transition after their own
// checks. Chi, pon and open kan called on another seat's discard set
// Player.State directly without consulting the table.
var transitions = map[ActionState]map[action]ActionState{
	StateRoundBegin: {
		actDraw: StateAfterGetTile,
		actChi:  StateAfterChiPon,
		actPon:  StateAfterChiPon,
		actKan:  StateAfterChiPon,
	},
	StateAfterChiPon: {
		actKiri: StateAfterKiri,
	},
	StateAfterGetTile: {
		actKiri:          StateAfterKiri,
		actKan:           StateAfterKan,
		actTsumo:         StateRoundOver,
		actNineTerminals: StateRoundOver,
	},
	StateAfterKan: {
		actKiri:  StateAfterKiri,
		actKan:   StateAfterKan,
		actTsumo: StateRoundOver,
	},
	StateAfterKanCanNari: {
		actKiri:  StateAfterKiri,
		actKan:   StateAfterKan,
		actTsumo: StateRoundOver,
	},
	StateAfterKiri: {
		actChi:  StateAfterChiPon,
		actPon:  StateAfterChiPon,
		actKan:  StateAfterChiPon,
		actOver: StateRoundOver,
	},
	StateNotifiedRon: {
		actRon:  StateRoundOver,
		actOver: StateRoundOver,
	},
}

// canAct reports the state a seats moves to for event a, and whether that
// transition is legal from its current state.
func (p *Player) canAct(a action) (ActionState, bool) {
	next, ok := transitions[p.State][a]
	return next, ok
}

// transition applies event a if legal, reporting success.
func (p *Player) transition(a action) bool {
	next, ok := p.canAct(a)
	if ok {
		p.State = next
	}
	return ok
}

// AutoOption names one of the three bot behaviors a seat can toggle,
// ported from sync_mahjong.h's AutoOption enum (AUTO_FU, AUTO_KIRI,
// AUTO_GET_TILE).
type AutoOption int

const (
	// AutoFu: auto-declare a win (tsumo or ron) the instant one becomes
	// legal, instead of waiting for a default/timeout action.
	AutoFu AutoOption = iota
	// AutoKiri: a computer seat discards the just-drawn tile (tsumogiri);
	// when unset it discards the first tile in hand instead.
	AutoKiri
	// AutoGetTile: when unset, a computer seat holding two copies of the
	// open discard pons it during the reaction window; when set it passes.
	AutoGetTile
)

// Player is one seat's full mahjong state.
type Player struct {
	Seat      int
	Hand      []Tile
	Furu      []Furu
	River     []Tile
	// Called parallels River: for each discard, whether it was later
	// called by another seat (a called discard breaks this player's own
	// nagashi eligibility).
	Called []bool

	State ActionState

	Riichi        bool
	RichiRound    int // go-around number riichi was declared in; 0 if never
	DoubleRiichi  bool
	IppatsuActive bool

	// FromChi is a bitset over seats: bit k set means seat k's discards
	// are still a legal chi source for this player. Ported from
	// sync_mahjong.h's from_chi_players_; unlike the standard "only the
	// seat to my left" rule, any seat present in the bitset may be
	// chi'd from, which is what lets two different callers each chi the
	// same discarder's tiles across a hand (see shape.FromChiPlayers).
	FromChi uint8

	autoOptions [3]bool

	// Furiten is set when this seat declines a ron in the ron stage and
	// stays set for the rest of the hand. Separately, findRon treats a
	// seat whose own river holds one of its waiting tiles as unable to ron.
	Furiten bool

	// Nagashi tracks whether every discard so far has been an uncalled
	// terminal or honor, the precondition for nagashi mangan.
	Nagashi bool

	IsComputer bool
}

// NewPlayer seats an empty hand for seat with every AutoOption enabled.
// FromChi starts empty; the caller fills it (see newChiSources).
func NewPlayer(seat int) *Player {
	p := &Player{Seat: seat, Nagashi: true, State: StateRoundBegin}
	p.autoOptions[AutoFu] = true
	p.autoOptions[AutoKiri] = true
	p.autoOptions[AutoGetTile] = true
	return p
}

// SetAutoOption toggles one of the three bot behaviors for this seat.
func (p *Player) SetAutoOption(o AutoOption, v bool) { p.autoOptions[o] = v }

// GetAutoOption reports whether bot behavior o is enabled for this seat.
func (p *Player) GetAutoOption(o AutoOption) bool { return p.autoOptions[o] }

// Discard moves tile from the hand to the river. It does not remove the
// tile from Hand; callers remove it via RemoveFromHand first so a kan
// declaration can inspect the hand before the discard is recorded.
func (p *Player) Discard(tile Tile) {
	p.River = append(p.River, tile)
	p.Called = append(p.Called, false)
	if !tile.IsTerminalOrHonor() {
		p.Nagashi = false
	}
}

// MarkCalled flags the most recent discard as claimed by another seat,
// breaking this seat's nagashi eligibility.
func (p *Player) MarkCalled() {
	if len(p.Called) == 0 {
		return
	}
	p.Called[len(p.Called)-1] = true
	p.Nagashi = false
}

// RemoveFromHand removes the first occurrence of tile from the hand,
// reporting whether it was found.
func (p *Player) RemoveFromHand(tile Tile) bool {
	for i, t := range p.Hand {
		if t == tile {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// AddFuru records a newly called or declared meld.
func (p *Player) AddFuru(f Furu) { p.Furu = append(p.Furu, f) }

// IsClosed reports whether the hand has no open melds (kans declared from
// one's own hand don't count as opening the hand).
func (p *Player) IsClosed() bool {
	for _, f := range p.Furu {
		if f.Kind != FuruKanClosed {
			return false
		}
	}
	return true
}

// WaitingTiles enumerates every tile that would complete this seat's hand
// given their current concealed tiles and melds (one fewer concealed tile
// than a complete hand, i.e. tenpai form). It's a brute-force scan over all
// 34 tile kinds using IsWinningHand, acceptable at this scale (checked at
// most a few times per discard).
func (p *Player) WaitingTiles() []Tile {
	var waits []Tile
	for _, cand := range allTileKinds() {
		trial := append(append([]Tile(nil), p.Hand...), cand)
		if IsWinningHand(trial, p.Furu) {
			waits = append(waits, cand)
		}
	}
	return waits
}

// HasNineTerminalKinds reports whether hand (optionally plus an extra just-
// drawn tile) contains at least nine distinct terminal/honor kinds, the
// precondition for declaring 九种九牌 (nine kinds, nine tiles).
func (p *Player) HasNineTerminalKinds() bool {
	seen := map[Tile]bool{}
	for _, t := range p.Hand {
		if t.IsTerminalOrHonor() {
			seen[Tile{Suit: t.Suit, Num: t.Num}] = true
		}
	}
	return len(seen) >= 9
}

// allTileKinds enumerates one representative tile per the 34 standard
// kinds (ignoring red-five distinction, which doesn't affect shape).
func allTileKinds() []Tile {
	var kinds []Tile
	for _, suit := range []Suit{Man, Pin, Sou} {
		for num := 1; num <= 9; num++ {
			kinds = append(kinds, Tile{Suit: suit, Num: num})
		}
	}
	for num := East; num <= Red; num++ {
		kinds = append(kinds, Tile{Suit: Honor, Num: num})
	}
	return kinds
}
