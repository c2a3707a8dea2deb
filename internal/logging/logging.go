// Package logging sets up the process-wide structured logger.
//
// stdout carries the MCP protocol, so log records go to a rotating file
// only. With file logging disabled every record is discarded; the
// logger stays safe to use either way.
package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	// Dir is the directory for the rotating log file.
	Dir string

	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// Enabled turns the log file on.
	Enabled bool
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
	writer *lumberjack.Logger
)

// Init configures the global logger. Call once at startup.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	if !cfg.Enabled || cfg.Dir == "" {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return
	}

	writer = &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "retrace.log"),
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     10,
		Compress:   true,
	}
	logger = slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))
}

// Logger returns the global logger. Safe before Init: records are
// discarded until then.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return logger
}

// ForComponent returns a child logger tagged with the component name.
func ForComponent(name string) *slog.Logger {
	return Logger().With("component", name)
}

// Close closes the log file if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if writer == nil {
		return nil
	}
	err := writer.Close()
	writer = nil
	return err
}

func parseLevel(s string) slog.Level {
	switch s {
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
