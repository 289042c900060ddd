package yaku

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boardkeeper/internal/games/mahjong/shape"
)

func run(suit shape.Suit, start int) []shape.Tile {
	return []shape.Tile{{Suit: suit, Num: start}, {Suit: suit, Num: start + 1}, {Suit: suit, Num: start + 2}}
}

func pair(suit shape.Suit, num int) []shape.Tile {
	return []shape.Tile{{Suit: suit, Num: num}, {Suit: suit, Num: num}}
}

// tanyaoHand is a closed, all-simples hand with no yakuhai: 22m pair, 345p
// 678p 234s 567s. The pair sits on the lowest sorted tile (Man before Pin
// before Sou), the first pair candidate decomposeConcealed tries.
func tanyaoHand() []shape.Tile {
	var tiles []shape.Tile
	tiles = append(tiles, pair(shape.Man, 2)...)
	tiles = append(tiles, run(shape.Pin, 3)...)
	tiles = append(tiles, run(shape.Pin, 6)...)
	tiles = append(tiles, run(shape.Sou, 2)...)
	tiles = append(tiles, run(shape.Sou, 5)...)
	return tiles
}

func TestScoreTanyaoTsumoAwardsExpectedYaku(t *testing.T) {
	w := Win{Tiles: tanyaoHand(), Tsumo: true}
	result := Score(w, false)
	require.NotZero(t, result.Han)
	var names []string
	for _, y := range result.Yaku {
		names = append(names, y.Name)
	}
	require.Contains(t, names, "tanyao")
	require.Contains(t, names, "menzen tsumo")
}

func TestScoreHandWithNoYakuReturnsZeroResult(t *testing.T) {
	// a closed ron on 11m (terminal pair, breaks tanyao and pinfu's
	// non-yakuhai-pair test is moot since the breaking group below isn't a
	// run), a North triplet that matches neither seat nor round wind (so no
	// yakuhai, and it breaks the all-runs shape needed for pinfu), plus two
	// pin runs and one sou run spread across suits so honitsu/chinitsu and
	// sanshoku never line up: nothing qualifies.
	tiles := []shape.Tile{{Suit: shape.Man, Num: 1}, {Suit: shape.Man, Num: 1}}
	tiles = append(tiles, shape.Tile{Suit: shape.Honor, Num: shape.North}, shape.Tile{Suit: shape.Honor, Num: shape.North}, shape.Tile{Suit: shape.Honor, Num: shape.North})
	tiles = append(tiles, run(shape.Pin, 2)...)
	tiles = append(tiles, run(shape.Pin, 5)...)
	tiles = append(tiles, run(shape.Sou, 2)...)
	w := Win{Tiles: tiles, SeatWind: shape.South, RoundWind: shape.West}
	result := Score(w, false)
	require.Zero(t, result)
}

func TestScoreRiichiAddsOneHan(t *testing.T) {
	plain := Score(Win{Tiles: tanyaoHand(), Tsumo: true}, false)
	withRiichi := Score(Win{Tiles: tanyaoHand(), Tsumo: true, Riichi: true}, false)
	require.Equal(t, plain.Han+1, withRiichi.Han)
}

func TestScoreChiitoitsuYakuAwardsTwoHanBase(t *testing.T) {
	var tiles []shape.Tile
	for _, n := range []int{1, 2, 3, 4, 5, 6, 7} {
		tiles = append(tiles, shape.Tile{Suit: shape.Man, Num: n}, shape.Tile{Suit: shape.Man, Num: n})
	}
	result := Score(Win{Tiles: tiles}, false)
	require.Len(t, result.Yaku, 1)
	require.Equal(t, "chiitoitsu", result.Yaku[0].Name)
	require.Equal(t, 2, result.Han)
}

func TestScoreThirteenOrphansIsYakuman(t *testing.T) {
	tiles := []shape.Tile{
		{Suit: shape.Man, Num: 1}, {Suit: shape.Man, Num: 9},
		{Suit: shape.Pin, Num: 1}, {Suit: shape.Pin, Num: 9},
		{Suit: shape.Sou, Num: 1}, {Suit: shape.Sou, Num: 9},
		{Suit: shape.Honor, Num: shape.East}, {Suit: shape.Honor, Num: shape.South},
		{Suit: shape.Honor, Num: shape.West}, {Suit: shape.Honor, Num: shape.North},
		{Suit: shape.Honor, Num: shape.White}, {Suit: shape.Honor, Num: shape.Green},
		{Suit: shape.Honor, Num: shape.Red}, {Suit: shape.Man, Num: 1},
	}
	result := Score(Win{Tiles: tiles}, false)
	require.True(t, result.IsYakuman)
	require.Equal(t, int64(8000), result.Points)
}

func TestScoreThirteenOrphansYakumanIs12000ForDealer(t *testing.T) {
	tiles := []shape.Tile{
		{Suit: shape.Man, Num: 1}, {Suit: shape.Man, Num: 9},
		{Suit: shape.Pin, Num: 1}, {Suit: shape.Pin, Num: 9},
		{Suit: shape.Sou, Num: 1}, {Suit: shape.Sou, Num: 9},
		{Suit: shape.Honor, Num: shape.East}, {Suit: shape.Honor, Num: shape.South},
		{Suit: shape.Honor, Num: shape.West}, {Suit: shape.Honor, Num: shape.North},
		{Suit: shape.Honor, Num: shape.White}, {Suit: shape.Honor, Num: shape.Green},
		{Suit: shape.Honor, Num: shape.Red}, {Suit: shape.Man, Num: 1},
	}
	result := Score(Win{Tiles: tiles}, true)
	require.Equal(t, int64(12000), result.Points)
}

func TestScoreNagashiMangan(t *testing.T) {
	result := Score(Win{Nagashi: true}, false)
	require.Len(t, result.Yaku, 1)
	require.Equal(t, "nagashi mangan", result.Yaku[0].Name)
	require.Equal(t, 5, result.Han)
}

func TestScoreCountsDoraAgainstTheWinningHand(t *testing.T) {
	hand := tanyaoHand()
	withoutDora := Score(Win{Tiles: hand, Tsumo: true}, false)
	withDora := Score(Win{Tiles: hand, Tsumo: true, DoraTiles: []shape.Tile{{Suit: shape.Pin, Num: 3}}}, false)
	require.Equal(t, withoutDora.Han+1, withDora.Han)
}
