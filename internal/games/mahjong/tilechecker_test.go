package mahjong

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTileNumberSuits(t *testing.T) {
	tile, ok := parseTile("3p")
	require.True(t, ok)
	require.Equal(t, Tile{Suit: Pin, Num: 3}, tile)
}

func TestParseTileRedFive(t *testing.T) {
	tile, ok := parseTile("0s")
	require.True(t, ok)
	require.Equal(t, Tile{Suit: Sou, Num: 5, Red: true}, tile)
}

func TestParseTileHonorByName(t *testing.T) {
	tile, ok := parseTile("东")
	require.True(t, ok)
	require.Equal(t, Tile{Suit: Honor, Num: East}, tile)
}

func TestParseTileRejectsUnknownSuitLetter(t *testing.T) {
	_, ok := parseTile("3x")
	require.False(t, ok)
}

func TestParseTileRejectsWrongLength(t *testing.T) {
	// every digit 0-9 is a valid rank ("0" being the red five), so a
	// malformed number-suit token is one of the wrong length: a bare suit
	// letter or an empty string.
	_, ok := parseTile("m")
	require.False(t, ok)
	_, ok = parseTile("")
	require.False(t, ok)
}

func TestParseTileRejectsNonDigitFirstByte(t *testing.T) {
	_, ok := parseTile("xm")
	require.False(t, ok)
}
