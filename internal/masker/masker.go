// Package masker implements the per-seat tri-state readiness tracker that
// atomic stages use to decide whether every non-pinned player has checked in.
package masker

// state is the tri-state a single seat can occupy.
type state uint8

const (
	unset state = iota
	set
	pinned
)

// Masker tracks readiness for a fixed number of seats. Seats start UNSET.
// PINNED is sticky: once a seat is pinned (typically because the player
// left mid-stage) no further Set/Unset call can move it.
type Masker struct {
	recorder   []state
	unsetCount int
}

// New returns a Masker sized for n seats, all initially unset.
func New(n int) *Masker {
	return &Masker{recorder: make([]state, n), unsetCount: n}
}

// Set transitions seat i from UNSET to SET, leaving PINNED untouched.
// It returns whether the masker is ready afterward.
func (m *Masker) Set(i int) bool { return m.record(i, set) }

// Pin forces seat i to PINNED, removing it from the readiness denominator.
// It returns whether the masker is ready afterward.
func (m *Masker) Pin(i int) bool { return m.record(i, pinned) }

// Unset transitions seat i from SET back to UNSET. It is a no-op on PINNED
// or already-UNSET seats.
func (m *Masker) Unset(i int) { m.record(i, unset) }

// Clear returns every SET seat to UNSET. PINNED seats are untouched, so
// Clear is idempotent modulo pinning.
func (m *Masker) Clear() {
	for i, s := range m.recorder {
		if s == set {
			m.recorder[i] = unset
			m.unsetCount++
		}
	}
}

// IsReady reports whether no UNSET seats remain.
func (m *Masker) IsReady() bool { return m.unsetCount == 0 }

func (m *Masker) record(i int, s state) bool {
	old := m.recorder[i]
	if old != pinned {
		m.recorder[i] = s
		if s == unset {
			m.unsetCount++
		}
		if old == unset {
			m.unsetCount--
		}
	}
	return m.IsReady()
}
