package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-md2docx/internal/clock"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// recorder collects the arguments actions were called with.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDebouncer_BurstFiresOnceWithLastArgument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		burst int
	}{
		{name: "single call", burst: 1},
		{name: "two calls", burst: 2},
		{name: "keystroke burst", burst: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := clock.NewFake(epoch)
			d := New[string](c)
			rec := &recorder{}

			var last string
			for i := 0; i < tt.burst; i++ {
				last = string(rune('a' + i%26))
				d.Schedule(rec.record, last, 300*time.Millisecond)
				c.Advance(100 * time.Millisecond) // always inside the window
			}

			if got := rec.snapshot(); len(got) != 0 {
				t.Fatalf("fired during burst: %v", got)
			}

			c.Advance(300 * time.Millisecond)

			got := rec.snapshot()
			if len(got) != 1 {
				t.Fatalf("fired %d times, want 1 (%v)", len(got), got)
			}
			if got[0] != last {
				t.Errorf("fired with %q, want last argument %q", got[0], last)
			}
		})
	}
}

func TestDebouncer_FiresExactlyAtDelay(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(epoch)
	d := New[int](c)
	var fired atomic.Int32

	d.Schedule(func(int) { fired.Add(1) }, 1, 300*time.Millisecond)

	c.Advance(299 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("fired before delay elapsed")
	}
	c.Advance(time.Millisecond)
	if fired.Load() != 1 {
		t.Fatalf("fired = %d at delay, want 1", fired.Load())
	}

	c.Advance(time.Hour)
	if fired.Load() != 1 {
		t.Errorf("fired = %d after an hour, want 1", fired.Load())
	}
}

func TestDebouncer_SpacedCallsEachFire(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(epoch)
	d := New[string](c)
	rec := &recorder{}

	for _, s := range []string{"one", "two", "three"} {
		d.Schedule(rec.record, s, 50*time.Millisecond)
		c.Advance(100 * time.Millisecond)
	}

	got := rec.snapshot()
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(epoch)
	d := New[string](c)
	rec := &recorder{}

	d.Schedule(rec.record, "dropped", 50*time.Millisecond)
	if !d.Pending() {
		t.Fatal("Pending() = false after Schedule")
	}

	d.Cancel()
	if d.Pending() {
		t.Error("Pending() = true after Cancel")
	}

	c.Advance(time.Second)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("canceled action fired: %v", got)
	}
}

func TestDebouncer_PendingClearedAfterFire(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(epoch)
	d := New[struct{}](c)

	d.Schedule(func(struct{}) {}, struct{}{}, 10*time.Millisecond)
	c.Advance(10 * time.Millisecond)

	if d.Pending() {
		t.Error("Pending() = true after action fired")
	}
}

func TestDebouncer_ScheduleFromAction(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(epoch)
	d := New[int](c)
	var calls []int

	var action func(int)
	action = func(n int) {
		calls = append(calls, n)
		if n < 3 {
			d.Schedule(action, n+1, 10*time.Millisecond)
		}
	}

	d.Schedule(action, 1, 10*time.Millisecond)
	c.Advance(time.Second)

	if len(calls) != 3 || calls[0] != 1 || calls[2] != 3 {
		t.Errorf("calls = %v, want [1 2 3]", calls)
	}
}

func TestDebouncer_RealClock(t *testing.T) {
	t.Parallel()

	d := New[string](nil)
	done := make(chan string, 4)

	for _, s := range []string{"a", "b", "c"} {
		d.Schedule(func(v string) { done <- v }, s, 20*time.Millisecond)
	}

	select {
	case got := <-done:
		if got != "c" {
			t.Errorf("fired with %q, want %q", got, "c")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced action never fired")
	}

	select {
	case extra := <-done:
		t.Errorf("unexpected extra call with %q", extra)
	case <-time.After(100 * time.Millisecond):
	}
}
