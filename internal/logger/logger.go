// Package logger configures the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to w at the given level.
func New(level string, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// Setup installs a JSON logger as the slog default.
func Setup(level string, w io.Writer) {
	slog.SetDefault(New(level, w))
}
