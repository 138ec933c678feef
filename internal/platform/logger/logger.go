package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns the JSON logger the backend and demo wiring share. The level
// comes from VERIFLOW_LOG_LEVEL (debug, warn, error); anything else means
// info.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	return slog.New(handler).With(slog.String("service", "veriflow"))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("VERIFLOW_LOG_LEVEL")) {
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
