// Package status manages the transient error/success banner of an editing
// session. At most one banner is visible; each auto-dismisses after a
// kind-specific lifetime.
package status

import (
	"sync"
	"time"

	"github.com/alnah/go-md2docx/internal/clock"
)

// Default banner lifetimes.
const (
	DefaultErrorDuration   = 8 * time.Second
	DefaultSuccessDuration = 5 * time.Second
)

// Kind is the banner flavor.
type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

// Banner is the board state. The zero value is hidden.
type Banner struct {
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Visible bool   `json:"visible"`
}

// Listener receives every banner change, including auto-dismissal.
type Listener func(Banner)

// Option configures a Board.
type Option func(*Board)

// WithErrorDuration sets how long error banners stay visible.
func WithErrorDuration(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.errorTTL = d
		}
	}
}

// WithSuccessDuration sets how long success banners stay visible.
func WithSuccessDuration(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.successTTL = d
		}
	}
}

// Board owns the visible banner and its dismissal timer.
type Board struct {
	clock      clock.Clock
	errorTTL   time.Duration
	successTTL time.Duration

	mu        sync.Mutex
	current   Banner
	timer     clock.Timer
	seq       uint64
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a hidden Board. A nil clock uses the real clock.
func New(c clock.Clock, opts ...Option) *Board {
	if c == nil {
		c = clock.Real()
	}
	b := &Board{
		clock:      c,
		errorTTL:   DefaultErrorDuration,
		successTTL: DefaultSuccessDuration,
		listeners:  make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ShowError replaces the current banner with an error banner.
func (b *Board) ShowError(msg string) {
	b.show(KindError, msg, b.errorTTL)
}

// ShowSuccess replaces the current banner with a success banner.
func (b *Board) ShowSuccess(msg string) {
	b.show(KindSuccess, msg, b.successTTL)
}

// Hide dismisses the current banner and cancels its timer.
func (b *Board) Hide() {
	b.mu.Lock()
	b.stopLocked()
	changed := b.current.Visible
	b.current = Banner{}
	banner := b.current
	b.mu.Unlock()

	if changed {
		b.notify(banner)
	}
}

// Current returns the banner state.
func (b *Board) Current() Banner {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Subscribe registers l and returns a function that removes it.
func (b *Board) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *Board) show(kind Kind, msg string, ttl time.Duration) {
	b.mu.Lock()
	b.stopLocked()
	b.current = Banner{Kind: kind, Message: msg, Visible: true}
	current := b.seq
	b.timer = b.clock.AfterFunc(ttl, func() { b.expire(current) })
	banner := b.current
	b.mu.Unlock()

	b.notify(banner)
}

// expire hides the banner scheduled under seq unless it was replaced.
func (b *Board) expire(seq uint64) {
	b.mu.Lock()
	if b.seq != seq {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.seq++
	b.current = Banner{}
	banner := b.current
	b.mu.Unlock()

	b.notify(banner)
}

func (b *Board) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.seq++
}

func (b *Board) notify(banner Banner) {
	b.mu.Lock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(banner)
	}
}
