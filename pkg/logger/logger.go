package logger

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the logging interface used by the library.
// *charmlog.Logger satisfies it directly.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// NopLogger discards all log messages.
type NopLogger struct{}

func (NopLogger) Debug(any, ...any) {}
func (NopLogger) Info(any, ...any)  {}
func (NopLogger) Warn(any, ...any)  {}
func (NopLogger) Error(any, ...any) {}

// New builds a leveled logger that writes to w. Debug output is only emitted
// when verbose is set.
func New(w io.Writer, verbose bool) Logger {
	if w == nil {
		return NopLogger{}
	}
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "forecast-agent",
	})
	if verbose {
		l.SetLevel(charmlog.DebugLevel)
	} else {
		l.SetLevel(charmlog.InfoLevel)
	}
	return l
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
