package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AbilashEG/smart-hr-intake/internal/config"
)

// SetupLogger returns the JSON logger for role, writing to stdout.
func SetupLogger(cfg config.Config, role string) *slog.Logger {
	return newLogger(cfg, role, os.Stdout)
}

func newLogger(cfg config.Config, role string, w io.Writer) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel(cfg)})
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("role", role),
		slog.String("env", cfg.AppEnv),
	)
}

// logLevel honours LOG_LEVEL and otherwise logs debug in dev only.
func logLevel(cfg config.Config) slog.Level {
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if cfg.IsDev() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
