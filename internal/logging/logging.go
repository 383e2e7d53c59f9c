// Package logging configures the application logger. The TUI owns the
// terminal, so logs always go to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/model"
)

// Open creates a file-backed logger from the given config. The returned
// closer flushes and closes the log file.
func Open(cfg model.LogConfig) (*log.Logger, func() error, error) {
	dir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "todosync",
	})

	return logger, f.Close, nil
}
