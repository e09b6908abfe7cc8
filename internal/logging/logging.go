// Package logging defines the structured logger used across the editor,
// the preview pipeline and the live server.
package logging

import (
	"context"
	"maps"
)

// Logger is a leveled, key/value structured logger.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is implemented by loggers that can carry persistent fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// Provider hands out named loggers.
type Provider interface {
	GetLogger(name string) Logger
}

// WithFields attaches fields when logger supports them and returns logger
// unchanged otherwise.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fl.WithFields(copied)
	}
	return logger
}

// OrNoOp returns logger, or a NoOp logger when it is nil.
func OrNoOp(logger Logger) Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

// NoOp returns a Logger that discards everything.
func NoOp() Logger {
	return noop{}
}

type noop struct{}

func (noop) Trace(string, ...any)                 {}
func (noop) Debug(string, ...any)                 {}
func (noop) Info(string, ...any)                  {}
func (noop) Warn(string, ...any)                  {}
func (noop) Error(string, ...any)                 {}
func (n noop) WithContext(context.Context) Logger { return n }
func (n noop) WithFields(map[string]any) Logger   { return n }

var (
	_ Logger       = noop{}
	_ FieldsLogger = noop{}
)
