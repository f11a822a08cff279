// Package logger builds the zerolog loggers shared by the API server and the
// command line tools, and carries them through request contexts.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// Options controls how a logger is built.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Console switches to human readable output instead of JSON lines.
	Console bool
	// Out defaults to os.Stderr.
	Out io.Writer
}

// New returns a console logger at info level writing to stderr.
func New() zerolog.Logger {
	return NewWithOptions(Options{Console: true})
}

// NewWithOptions builds a logger with a timestamp and the calling site on
// every event.
func NewWithOptions(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Caller().
		Logger()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// WithContext stores log in ctx.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored by WithContext, or New when ctx has
// none.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return log
	}
	return New()
}

// WithSession tags every event of log with the chat session id.
func WithSession(log zerolog.Logger, sessionID string) zerolog.Logger {
	if sessionID == "" {
		return log
	}
	return log.With().Str("session_id", sessionID).Logger()
}
