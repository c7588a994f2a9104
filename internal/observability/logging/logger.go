// Package logging configures the shared slog setup for the api and
// worker processes. Both emit JSON on stdout with a service attribute
// so their streams can be told apart in an aggregated tail.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger builds the process logger and installs it as the slog
// default, so libraries that log through slog inherit the same handler.
func NewJSONLogger(service, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})).With(slog.String("service", service))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps the config's log_level value onto a slog level.
// Unrecognized values, including the empty default, mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
