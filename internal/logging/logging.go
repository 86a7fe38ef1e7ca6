// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger at debug level writing to w when debug is set,
// and a logger that drops everything otherwise.
func New(debug bool, w io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})).With("app", "tasktracker")
}
