package logging

import (
	"context"
	"sync"
)

// Entry is one call captured by a Recorder.
type Entry struct {
	Level  string
	Msg    string
	Args   []any
	Fields map[string]any
}

// Recorder is an in-memory Logger for tests and diagnostics.
type Recorder struct {
	shared *entryLog
	fields map[string]any
}

type entryLog struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{shared: &entryLog{}}
}

func (r *Recorder) log(level, msg string, args []any) {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	r.shared.entries = append(r.shared.entries, Entry{Level: level, Msg: msg, Args: args, Fields: r.fields})
}

func (r *Recorder) Trace(msg string, args ...any) { r.log("trace", msg, args) }
func (r *Recorder) Debug(msg string, args ...any) { r.log("debug", msg, args) }
func (r *Recorder) Info(msg string, args ...any)  { r.log("info", msg, args) }
func (r *Recorder) Warn(msg string, args ...any)  { r.log("warn", msg, args) }
func (r *Recorder) Error(msg string, args ...any) { r.log("error", msg, args) }

// WithContext implements Logger.
func (r *Recorder) WithContext(context.Context) Logger { return r }

// WithFields returns a child sharing the same entry log.
func (r *Recorder) WithFields(fields map[string]any) Logger {
	merged := make(map[string]any, len(r.fields)+len(fields))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Recorder{shared: r.shared, fields: merged}
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	return append([]Entry(nil), r.shared.entries...)
}

// Count returns how many entries were logged at level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

var (
	_ Logger       = (*Recorder)(nil)
	_ FieldsLogger = (*Recorder)(nil)
)
