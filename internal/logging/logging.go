// Package logging provides structured logging with slog for the calpoint
// client. Library packages take a *slog.Logger; this package builds one
// from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string

	// Format is the output format: text or json.
	Format string

	// Output overrides the destination (defaults to stderr).
	Output io.Writer

	// Component is attached to every record emitted by this logger.
	Component string
}

// New builds a logger from the configuration. Unknown levels fall back to
// info; unknown formats fall back to text.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With("component", cfg.Component)
	}
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
