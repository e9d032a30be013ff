// Package logging sets up the process-wide structured logger. Logs go to
// a rotating file so the TUI output stays clean; when no log directory is
// configured everything is discarded.
package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names used as the "component" field on sub-loggers.
const (
	CompAlert    = "alert"
	CompTrigger  = "trigger"
	CompScanner  = "scanner"
	CompRegistry = "registry"
	CompStats    = "stats"
	CompConfig   = "config"
	CompUI       = "ui"
)

// Config holds logging configuration.
type Config struct {
	// Dir is the directory for log files. Empty disables file logging.
	Dir string

	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// MaxSizeMB is the rotation threshold (default 10).
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep (default 5).
	MaxBackups int
}

var (
	mu       sync.RWMutex
	root     *slog.Logger
	rotating *lumberjack.Logger
)

// Init initializes the global logger. Safe to call once at startup,
// before any ForComponent logger is used for output.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 5
	}

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Dir == "" {
		root = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return
	}

	rotating = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "claude-buddy.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}

	root = slog.New(slog.NewJSONHandler(rotating, &slog.HandlerOptions{Level: level}))
}

// Logger returns the global logger. Safe to call before Init.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return root
}

// ForComponent returns a sub-logger tagged with the component name.
func ForComponent(name string) *slog.Logger {
	return Logger().With(slog.String("component", name))
}

// Shutdown closes the rotating writer.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if rotating != nil {
		_ = rotating.Close()
		rotating = nil
	}
	root = nil
}
