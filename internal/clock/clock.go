// Package clock abstracts wall time and timers so that debounce windows and
// banner lifetimes can be driven by a simulated clock in tests.
package clock

import "time"

// Timer is a cancellable handle for a function scheduled with AfterFunc.
type Timer interface {
	// Stop prevents the function from running. It returns false if the
	// function already ran or the timer was already stopped.
	Stop() bool
}

// Clock provides the current time and scheduled callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
