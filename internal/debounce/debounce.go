// Package debounce collapses bursts of triggers into a single trailing call.
package debounce

import (
	"sync"
	"time"

	"github.com/alnah/go-md2docx/internal/clock"
)

// Debouncer runs the most recently scheduled action once its delay has
// elapsed without another Schedule call.
//
// Thread-safety: all methods are safe for concurrent use. Actions from the
// same Debouncer never run concurrently and never run out of scheduling
// order; a superseded action is dropped, never queued.
type Debouncer[T any] struct {
	clock clock.Clock

	mu    sync.Mutex
	timer clock.Timer
	seq   uint64 // identifies the live schedule; stale timers compare unequal

	run sync.Mutex // serializes action execution
}

// New creates a Debouncer driven by c. A nil clock uses the real clock.
func New[T any](c clock.Clock) *Debouncer[T] {
	if c == nil {
		c = clock.Real()
	}
	return &Debouncer[T]{clock: c}
}

// Schedule arranges for action(arg) to run delay after this call, cancelling
// any action scheduled earlier that has not fired yet.
func (d *Debouncer[T]) Schedule(action func(T), arg T, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	current := d.seq

	d.timer = d.clock.AfterFunc(delay, func() {
		d.run.Lock()
		defer d.run.Unlock()

		d.mu.Lock()
		if d.seq != current {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.seq++ // consumed
		d.mu.Unlock()

		action(arg)
	})
}

// Cancel drops the pending action, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

// Pending reports whether an action is scheduled and has not fired.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
