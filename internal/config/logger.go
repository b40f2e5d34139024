package config

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger configures the default slog logger. The level comes from
// the config file; YTSCRIBE_LOG_LEVEL overrides it. Logs go to stderr
// so background workers can redirect all output to one job log file.
func InitLogger(cfg *Config) {
	raw := os.Getenv("YTSCRIBE_LOG_LEVEL")
	if raw == "" {
		raw = cfg.General.LogLevel
	}

	var level slog.Level
	switch strings.ToLower(raw) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
