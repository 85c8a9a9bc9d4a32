package logging

import "context"

// Logger is the leveled logging contract used across the console. It
// mirrors github.com/goliatone/go-logger so that package plugs in directly.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// FieldsLogger is implemented by loggers that can carry persistent fields.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// WithFields attaches fields when the logger supports it and returns the
// logger unchanged otherwise.
func WithFields(logger Logger, fields map[string]any) Logger {
	if logger == nil {
		return NoOp()
	}
	if len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		return fl.WithFields(copied)
	}
	return logger
}

// NoOp returns a logger that drops everything.
func NoOp() Logger { return noop{} }

type noop struct{}

func (noop) Trace(string, ...any)                 {}
func (noop) Debug(string, ...any)                 {}
func (noop) Info(string, ...any)                  {}
func (noop) Warn(string, ...any)                  {}
func (noop) Error(string, ...any)                 {}
func (noop) Fatal(string, ...any)                 {}
func (n noop) WithContext(context.Context) Logger { return n }
func (n noop) WithFields(map[string]any) Logger   { return n }
