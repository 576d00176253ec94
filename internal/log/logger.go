package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// OpenFile opens path for appending, creating it and its parent directory
// if needed. Existing content is never truncated.
func OpenFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// New creates the run logger. Every Info and above record is written to
// file as a single line. console, if non-nil, receives slog text output at
// Warn, or Debug when verbose is set. Both destinations are masked by a
// SecureHandler.
func New(file, console io.Writer, verbose bool) *slog.Logger {
	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, NewLineHandler(file, slog.LevelInfo))
	}
	if console != nil {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		handlers = append(handlers, slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(NewSecureHandler(NewTeeHandler(handlers...)))
}
