// Package config provides configuration helpers for FormFiller commands.
package config

import (
	"os"
	"strings"
	"time"
)

// Defaults for the orchestration service.
const (
	DefaultPort          = "8000"
	DefaultUIPushTimeout = 2 * time.Second
	DefaultAckTimeout    = 5 * time.Second
	DefaultExportDir     = "./exports"
)

// Port returns the HTTP server port from the PORT env var.
func Port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// LogLevel returns the log level from LOG_LEVEL, defaulting to "info".
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

// UIPushTimeout returns the timeout for a single UI sync push.
// A push that exceeds it is logged, never fatal.
func UIPushTimeout() time.Duration {
	return durationEnv("UI_PUSH_TIMEOUT", DefaultUIPushTimeout)
}

// AckTimeout returns the timeout for delivering a tool result back to
// the reasoning engine. Exceeding it fails the invocation.
func AckTimeout() time.Duration {
	return durationEnv("ACK_TIMEOUT", DefaultAckTimeout)
}

// ExportDir returns the directory for latency log exports.
func ExportDir() string {
	if dir := os.Getenv("EXPORT_DIR"); dir != "" {
		return dir
	}
	return DefaultExportDir
}

// RemoteUIURL returns the websocket URL of a remote display service to
// forward UI events to. Empty means no forwarding.
func RemoteUIURL() string {
	return os.Getenv("REMOTE_UI_URL")
}

// FastPathFields returns the explicit field subset to advertise in
// open_form UI events, from FAST_PATH_FIELDS as a comma-separated list.
// Empty means advertise the full definition.
func FastPathFields() []string {
	raw := os.Getenv("FAST_PATH_FIELDS")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
