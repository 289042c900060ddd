// Package mahjong implements the four-player synchronous riichi mahjong
// round used as the in-depth example game: a shared wall, one discard
// river per seat, exposed melds, a per-seat action state machine, and
// ron/tsumo/nagashi scoring via the hand-written yaku package. Grounded on
// original_source/game_util/sync_mahjong.h's structure and on the
// single-file reference engine in other_examples (used only to confirm
// there is no importable Go riichi-yaku library, not copied from).
package mahjong

import "boardkeeper/internal/games/mahjong/shape"

// Suit, Tile and NewWall are re-exported from the shape package so that
// both this package and the yaku scorer can share one definition without
// either importing the other.
type Suit = shape.Suit

const (
	Man   = shape.Man
	Pin   = shape.Pin
	Sou   = shape.Sou
	Honor = shape.Honor
)

const (
	East  = shape.East
	South = shape.South
	West  = shape.West
	North = shape.North
	White = shape.White
	Green = shape.Green
	Red   = shape.Red
)

// Tile is one physical tile; see shape.Tile.
type Tile = shape.Tile

// NewWall builds one freshly shuffled 136-tile wall; see shape.NewWall.
func NewWall(shuffle func(n int, swap func(i, j int))) []Tile {
	return shape.NewWall(shuffle)
}
