// Package logging configures the process-wide slog logger used by the
// rest of idasql.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures slog based on the LOG_LEVEL environment variable.
// Supported levels: debug, info, warn, error. Defaults to info.
func Init() {
	level := slog.LevelInfo
	if raw, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch strings.ToLower(raw) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// InitQuiet behaves like Init but defaults to WARN instead of INFO,
// unless LOG_LEVEL is set explicitly. No package in this repository
// calls it; the test packages do not install a logger.
func InitQuiet() {
	if os.Getenv("LOG_LEVEL") != "" {
		Init()
		return
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	slog.SetDefault(slog.New(handler))
}
