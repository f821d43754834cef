package slogutil

import (
	"fmt"
	"io"
	"log/slog"

	"sockroute/internal/config"
	"sockroute/internal/paths"
)

// ServerLogName is the base name of the server log under <state>/logs.
const ServerLogName = "server"

// LoggerFactory builds loggers from configuration. A level set with
// SetLevel takes precedence over logging.level.
type LoggerFactory struct {
	root     string
	config   *config.Config
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a factory for the project at root.
func NewLoggerFactory(root string, cfg *config.Config) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{root: root, config: cfg}
}

// SetLevel overrides the configured level, typically from a CLI flag.
func (f *LoggerFactory) SetLevel(level slog.Level) {
	f.cliLevel = &level
}

// Level returns the effective level.
func (f *LoggerFactory) Level() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// ServerLogPath returns <state>/logs/server.log.
func (f *LoggerFactory) ServerLogPath() string {
	return paths.LogPath(f.root, ServerLogName)
}

// ServerLogger writes to console in logging.format and, when logging.file
// is set, also to the server log in line format. If the file cannot be
// opened the console logger is returned together with the error.
func (f *LoggerFactory) ServerLogger(console io.Writer) (*slog.Logger, error) {
	level := f.Level()
	consoleHandler := NewHandler(console, f.config.Logging.Format, level)
	if !f.config.Logging.File {
		return slog.New(consoleHandler), nil
	}

	if _, err := paths.EnsureStateDir(f.root); err != nil {
		return slog.New(consoleHandler), err
	}
	w, err := OpenLogFile(f.ServerLogPath(), f.config.Logging.MaxSize, f.config.Logging.MaxBackups)
	if err != nil {
		return slog.New(consoleHandler), fmt.Errorf("server log: %w", err)
	}
	f.closers = append(f.closers, w)

	fileHandler := NewLineHandler(w, &slog.HandlerOptions{Level: level})
	return NewTeeLogger(consoleHandler, fileHandler), nil
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
