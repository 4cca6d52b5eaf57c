package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a structured logger writing to stderr.
// If verbose == true, level = Debug, else Info. The JSON handler is used for
// the server; the text handler reads better in an interactive terminal.
func NewLogger(verbose, json bool) *slog.Logger {
	return newLogger(os.Stderr, verbose, json)
}

func newLogger(w io.Writer, verbose, json bool) *slog.Logger {
	level := new(slog.LevelVar)
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
