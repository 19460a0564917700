package main

import (
	"log/slog"
	"os"
)

// NewLogger returns a structured JSON logger. Debug level when asked for by
// the config flag or the BUFF_SCANNER_DEBUG environment variable.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug || os.Getenv("BUFF_SCANNER_DEBUG") != "" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
