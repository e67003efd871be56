package cliapp

import (
	"log/slog"
	"os"

	"github.com/fz-run/fz/pkg/clog"
)

// NewLogger builds the process-wide structured logger from the log-level
// environment variable, writing fz's colored text records to stderr so
// stdout stays reserved for `--format` result output. The text handler is
// wrapped in clog.NewAttributesHandler so per-case attributes collected
// during scheduler dispatch (case key, calculator URI, terminal error)
// ride along on the log record that closes out each case.
func NewLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	handler := clog.NewTextHandler(os.Stderr, clog.WithLevel(slogLevel), clog.WithColor(true))
	return slog.New(clog.NewAttributesHandler(handler))
}
