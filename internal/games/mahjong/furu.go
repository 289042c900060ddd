package mahjong

import "boardkeeper/internal/games/mahjong/shape"

// FuruKind and Furu are re-exported from the shape package; see shape.go
// there for the full documentation.
type FuruKind = shape.FuruKind

const (
	FuruChi       = shape.FuruChi
	FuruPon       = shape.FuruPon
	FuruKanOpen   = shape.FuruKanOpen
	FuruKanClosed = shape.FuruKanClosed
	FuruKanAdded  = shape.FuruKanAdded
)

// Furu is one exposed (or concealed-but-declared) meld; see shape.Furu.
type Furu = shape.Furu

// canChiFrom reports whether discardSeat is still present in caller's
// chi-source bitset; see shape.FromChiPlayers.
func canChiFrom(fromChi uint8, discardSeat int) bool {
	return shape.FromChiPlayers(fromChi, discardSeat)
}

// newChiSources builds self's starting chi-source bitset; see
// shape.NewChiSources.
func newChiSources(numSeats, self int) uint8 {
	return shape.NewChiSources(numSeats, self)
}
