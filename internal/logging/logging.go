// Package logging provides centralized logging configuration for ampd.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// globalLogger is the application-wide logger
	globalLogger *slog.Logger
	globalMu     sync.RWMutex

	// logWriter holds the rotating file writer (if any) for cleanup
	logWriter   io.WriteCloser
	logWriterMu sync.Mutex
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level for console output (debug, info, warn, error)
	Level string
	// FileLevel is the minimum log level for file output. If empty, defaults to Level.
	FileLevel string
	// File is an optional log file path. The file is rotated by size.
	File string
	// MaxSizeMB is the size in megabytes at which the log file is rotated.
	// Default: 10MB
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep.
	// Default: 3
	MaxBackups int
	// JSON enables JSON output format
	JSON bool
	// Console is where console records go. Defaults to os.Stderr.
	// io.Discard disables console output.
	Console io.Writer
}

// Initialize sets up the global logger with the given configuration.
// If File is specified, logs are written to both console and file.
func Initialize(cfg Config) error {
	logger, closer, err := New(cfg)
	if err != nil {
		return err
	}

	logWriterMu.Lock()
	if logWriter != nil {
		_ = logWriter.Close()
	}
	logWriter = closer
	logWriterMu.Unlock()

	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()

	// Also set as default slog logger
	slog.SetDefault(logger)
	return nil
}

// New builds a logger without touching the global state. The returned
// closer is nil when no file is used.
func New(cfg Config) (*slog.Logger, io.WriteCloser, error) {
	consoleLevel, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	fileLevel := consoleLevel
	if cfg.FileLevel != "" {
		if fileLevel, err = ParseLevel(cfg.FileLevel); err != nil {
			return nil, nil, err
		}
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	createHandler := func(w io.Writer, level slog.Level) slog.Handler {
		opts := &slog.HandlerOptions{Level: level}
		if cfg.JSON {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}

	if cfg.File == "" {
		return slog.New(createHandler(console, consoleLevel)), nil, nil
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups < 0 {
		maxBackups = 3
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,    // megabytes
		MaxBackups: maxBackups, // number of backups
	}

	var handler slog.Handler
	switch {
	case console == io.Discard:
		handler = createHandler(lj, fileLevel)
	case fileLevel != consoleLevel:
		handler = &multiHandler{handlers: []slog.Handler{
			createHandler(console, consoleLevel),
			createHandler(lj, fileLevel),
		}}
	default:
		handler = createHandler(io.MultiWriter(console, lj), consoleLevel)
	}
	return slog.New(handler), lj, nil
}

// multiHandler fans out log records to multiple handlers.
// It is used when console and file have different log levels.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// Get returns the global logger.
// If Initialize hasn't been called, returns slog.Default().
func Get() *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// Close cleans up logging resources (closes log file if open).
func Close() error {
	logWriterMu.Lock()
	defer logWriterMu.Unlock()

	if logWriter != nil {
		err := logWriter.Close()
		logWriter = nil
		return err
	}
	return nil
}

// ParseLevel converts a level name to slog.Level. An empty name is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// WithComponent returns a logger with a component attribute.
func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}

// Client returns a logger for MPD connection events.
func Client() *slog.Logger {
	return WithComponent("client")
}

// CLI returns a logger for command-line events.
func CLI() *slog.Logger {
	return WithComponent("cli")
}

// Metrics returns a logger for the metrics endpoint.
func Metrics() *slog.Logger {
	return WithComponent("metrics")
}
