// Package logging builds the structured loggers shared by every binary.
package logging

import (
	"io"
	"log/slog"
	"strings"

	tlog "go.temporal.io/sdk/log"
)

// ParseLevel maps a level name to a slog.Level, defaulting to info
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

// New returns a text or JSON logger writing to w
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ForSession enriches a logger with the session identifier
func ForSession(logger *slog.Logger, sessionID string) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger.With(slog.String("session_id", sessionID))
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Temporal hands a slog logger to Temporal clients, workers and test
// environments; its method set already matches the SDK's logger
func Temporal(logger *slog.Logger) tlog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
