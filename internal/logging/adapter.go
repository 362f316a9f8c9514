package logging

import (
	"log/slog"
)

// Logger is the logging surface the digest pipeline and the market quoter
// depend on. Arguments are slog key-value pairs or slog.Attr values, so the
// helpers in this package can be passed directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a Logger that adds args to every record, e.g. the mail
	// source for the duration of one digest run.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// FromSlog wraps l as a Logger. A nil l logs through slog.Default().
func FromSlog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return slogLogger{l: slog.New(slog.DiscardHandler)}
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s slogLogger) With(args ...any) Logger {
	return slogLogger{l: s.l.With(args...)}
}
