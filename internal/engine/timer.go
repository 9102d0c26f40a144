package engine

import (
	"sync"
	"time"
)

// A Timer is a resettable, stoppable countdown, grounded on the
// start/stop/reset contract the probe's original Python implementation gave
// its own Timer helper. It wraps time.Timer directly rather than running a
// dedicated goroutine per timer.
type Timer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
}

// NewTimer creates a Timer that fires fn after d, calling fn in its own
// goroutine as time.AfterFunc does.
func NewTimer(d time.Duration, fn func()) *Timer {
	return &Timer{t: time.AfterFunc(d, fn)}
}

// Stop prevents the Timer from firing, if it hasn't already.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.t.Stop()
	t.stopped = true
}

// Reset reschedules the Timer to fire after d from now.
func (t *Timer) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.t.Reset(d)
	t.stopped = false
}

// Stopped reports whether the Timer has been explicitly stopped. It does not
// reflect whether the timer has already fired.
func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stopped
}
