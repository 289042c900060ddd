package mahjong

// deadWallSize is the number of tiles set aside for dora indicators and
// the rinshan (replacement-tile) draws a kan triggers.
const deadWallSize = 14

// maxKanDoraIndicators bounds how many dora indicators can ever be
// revealed (one at game start plus one per called kan, up to four kans).
const maxKanDoraIndicators = 5

// Yama is the shared wall: a live portion drawn from in turn order and a
// fixed dead wall holding the dora indicators and rinshan tiles.
type Yama struct {
	live     []Tile
	dead     []Tile
	doraRevealed int
}

// NewYama partitions a freshly built 136-tile wall into its live and dead
// portions and reveals the first dora indicator.
func NewYama(all []Tile) *Yama {
	y := &Yama{
		live: append([]Tile(nil), all[:len(all)-deadWallSize]...),
		dead: append([]Tile(nil), all[len(all)-deadWallSize:]...),
	}
	y.doraRevealed = 1
	return y
}

// RemainingLive reports how many tiles are left to draw before the wall is
// exhausted (a nagashi/ryuukyoku draw).
func (y *Yama) RemainingLive() int { return len(y.live) }

// Draw takes the next tile from the live wall. ok is false once the wall
// is exhausted.
func (y *Yama) Draw() (Tile, bool) {
	if len(y.live) == 0 {
		return Tile{}, false
	}
	t := y.live[0]
	y.live = y.live[1:]
	return t, true
}

// DrawRinshan takes a replacement tile from the dead wall after a kan is
// called, and drops the live wall's last tile, as the replenished dead wall
// would take it (the live wall shrinks by one). ok is false once four kans
// have revealed every kan dora indicator, or when the live wall is empty.
func (y *Yama) DrawRinshan() (Tile, bool) {
	if y.doraRevealed >= maxKanDoraIndicators || len(y.live) == 0 {
		return Tile{}, false
	}
	idx := deadWallSize - 1 - y.doraRevealed
	if idx < 0 || idx >= len(y.dead) {
		return Tile{}, false
	}
	t := y.dead[idx]
	y.live = y.live[:len(y.live)-1]
	return t, true
}

// RevealKanDora reveals the next kan dora indicator; drawRinshanFor calls
// it right after each rinshan draw.
func (y *Yama) RevealKanDora() {
	if y.doraRevealed < maxKanDoraIndicators {
		y.doraRevealed++
	}
}

// DoraIndicators returns every currently revealed dora indicator tile, in
// reveal order (index 0 is the game-start indicator).
func (y *Yama) DoraIndicators() []Tile {
	indicators := make([]Tile, 0, y.doraRevealed)
	for i := 0; i < y.doraRevealed; i++ {
		indicators = append(indicators, y.dead[i])
	}
	return indicators
}

// DoraTiles maps each revealed indicator to the tile it actually makes a
// dora (one rank higher, per Tile.Next's wrapping rules).
func (y *Yama) DoraTiles() []Tile {
	indicators := y.DoraIndicators()
	doras := make([]Tile, len(indicators))
	for i, ind := range indicators {
		doras[i] = ind.Next()
	}
	return doras
}
