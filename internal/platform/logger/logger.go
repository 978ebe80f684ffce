package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog. Debug mode lowers the
// level so validation step entries become visible.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
