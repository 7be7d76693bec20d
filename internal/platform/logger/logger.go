package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services log with
// InfoContext/WarnContext/ErrorContext and key-value attrs.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
