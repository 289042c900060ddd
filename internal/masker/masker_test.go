package masker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStartsUnready(t *testing.T) {
	m := New(3)
	require.False(t, m.IsReady())
}

func TestZeroSeatsIsReadyImmediately(t *testing.T) {
	m := New(0)
	require.True(t, m.IsReady())
}

func TestSetAllSeatsBecomesReady(t *testing.T) {
	m := New(3)
	require.False(t, m.Set(0))
	require.False(t, m.Set(1))
	require.True(t, m.Set(2))
	require.True(t, m.IsReady())
}

func TestUnsetRevertsReadiness(t *testing.T) {
	m := New(2)
	m.Set(0)
	require.True(t, m.Set(1))
	m.Unset(0)
	require.False(t, m.IsReady())
}

func TestClearKeepsPinnedSeats(t *testing.T) {
	m := New(3)
	m.Set(0)
	m.Set(1)
	require.True(t, m.Pin(2))
	m.Clear()
	require.False(t, m.IsReady())
	require.False(t, m.Set(0))
	require.True(t, m.Set(1))
}

func TestPinIsSticky(t *testing.T) {
	m := New(2)
	require.False(t, m.Pin(0))
	m.Set(0) // no-op: seat 0 is pinned
	m.Unset(0)
	require.True(t, m.Set(1))
	require.True(t, m.IsReady())
}

func TestRepeatedSetIsIdempotent(t *testing.T) {
	m := New(1)
	require.True(t, m.Set(0))
	require.True(t, m.Set(0))
	require.True(t, m.IsReady())
}

func TestRepeatedUnsetIsIdempotent(t *testing.T) {
	m := New(1)
	m.Unset(0)
	require.False(t, m.IsReady())
	m.Unset(0)
	require.False(t, m.IsReady())
}
