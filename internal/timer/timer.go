// Package timer implements the tiered countdown used by a match's current
// atomic stage: a terminal timeout preceded by graduated alert callbacks
// that fire less and less frequently as the deadline approaches.
package timer

import (
	"sync"
	"time"
)

// MinAlert is the closest an alert may fire to the deadline.
const MinAlert = 10 * time.Second

// AlertFunc is invoked for a non-terminal alert, with the seconds remaining
// until the deadline at the moment it fired.
type AlertFunc func(remaining time.Duration)

// TimeoutFunc is invoked exactly once, when the countdown reaches zero
// without having been stopped first.
type TimeoutFunc func()

// Timer is a single match's countdown. It is not safe to Start concurrently
// with itself; the match's own mutex serializes all access, matching the
// original "new timer supersedes the old one" contract.
type Timer struct {
	mu      sync.Mutex
	isOver  bool
	cancels []*time.Timer
}

// New constructs a no-op timer: Stop is always safe to call on it.
func New() *Timer { return &Timer{isOver: true} }

// Start begins a countdown of total seconds, scheduling graduated alerts
// before the terminal timeout. A total of zero makes Start a no-op (the
// timer stays in the "over" state and never fires). Starting a new
// countdown always stops whatever countdown was previously running.
//
// The alert schedule is deterministic: the terminal timeout fires at
// total; alerts fire at total-MinAlert, total-2*MinAlert, total-4*MinAlert,
// ... (i.e. the alert offset from the deadline doubles each step back)
// for as long as that offset stays below total/2. The
// uncovered remainder at the front of the schedule is a no-op.
func (t *Timer) Start(total time.Duration, onAlert AlertFunc, onTimeout TimeoutFunc) {
	t.Stop()
	if total <= 0 {
		return
	}
	t.mu.Lock()
	t.isOver = false
	t.mu.Unlock()

	schedule(total, t, onAlert, onTimeout)
}

// scheduled offset, measured back from the deadline.
type tieredTask struct {
	beforeDeadline time.Duration
	fire           func(remaining time.Duration)
}

func schedule(total time.Duration, t *Timer, onAlert AlertFunc, onTimeout TimeoutFunc) {
	tasks := []tieredTask{{beforeDeadline: 0, fire: func(time.Duration) { onTimeout() }}}
	if total/2 >= MinAlert {
		alertOffset := MinAlert
		sumAlert := MinAlert
		for sumAlert < total/2 {
			offset := alertOffset
			tasks = append(tasks, tieredTask{beforeDeadline: offset, fire: func(remaining time.Duration) { onAlert(remaining) }})
			sumAlert += alertOffset
			alertOffset *= 2
		}
	}
	// tasks[1:] are alerts nearest-to-furthest from the deadline; schedule
	// each as an absolute delay from now (total - beforeDeadline).
	for _, task := range tasks {
		delay := total - task.beforeDeadline
		remaining := task.beforeDeadline
		fire := task.fire
		real := time.AfterFunc(delay, func() {
			t.mu.Lock()
			over := t.isOver
			t.mu.Unlock()
			if !over {
				fire(remaining)
			}
		})
		t.mu.Lock()
		t.cancels = append(t.cancels, real)
		t.mu.Unlock()
	}
}

// Stop cancels the current countdown, idempotently. A terminal timeout
// already in flight (racing with Stop) will observe isOver and no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isOver = true
	for _, c := range t.cancels {
		c.Stop()
	}
	t.cancels = nil
}

// IsOver reports whether the timer has been stopped or has already fired
// its terminal timeout.
func (t *Timer) IsOver() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isOver
}
