// Package logger provides structured logging configuration using slog.
package logger

import (
	"log/slog"
	"os"
)

// Setup initializes and returns a configured slog.Logger writing JSON to
// stdout. Unknown level strings fall back to info.
func Setup(level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
