// Package debounce delays a callback until input pauses for a fixed window.
//
// Each Trigger cancels the pending callback and schedules a new one, so only
// the last callback scheduled inside the quiescence window runs.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the quiescence window used by the directory inputs.
const DefaultWindow = 300 * time.Millisecond

// Debouncer is a cancellable timer. It is safe for concurrent use.
type Debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
	stopped bool
}

// New creates a Debouncer. A non-positive window falls back to DefaultWindow.
func New(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window}
}

// Window returns the quiescence window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Trigger schedules fn after the window, superseding any pending callback.
// It reports false when the debouncer is stopped.
func (d *Debouncer) Trigger(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.cancelLocked()
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
	return true
}

// fire runs the callback of generation gen unless it was superseded after
// the timer already expired.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

// Pending reports whether a callback is waiting for the window to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Flush runs the pending callback now instead of waiting for the window.
// It reports whether a callback ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.cancelLocked()
	d.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop cancels the pending callback and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}
