// Package log provides structured logging for FormFiller.
// It wraps slog: text output for development, JSON when GO_ENV is
// "production", with one process-wide logger configured at startup.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Init configures the global logger at the given level, writing to
// stdout. Valid levels: "debug", "info", "warn", "error". Later calls
// are no-ops.
func Init(level string) {
	InitWriter(level, os.Stdout)
}

// InitWriter is Init with an explicit output destination, for tests and
// callers that redirect logs.
func InitWriter(level string, w io.Writer) {
	once.Do(func() {
		logger = slog.New(newHandler(w, parseLevel(level)))
		slog.SetDefault(logger)
	})
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(w io.Writer, lvl slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: lvl}
	if os.Getenv("GO_ENV") == "production" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// L returns the global logger instance.
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
