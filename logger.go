package batchimport

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with import-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithStage adds a stage field to the logger.
func (l *Logger) WithStage(stage string) *Logger {
	return &Logger{
		Logger: l.Logger.With("stage", stage),
	}
}

// LogStageStart logs the start of a stage run.
func (l *Logger) LogStageStart(ctx context.Context, stage string, steps int) {
	l.InfoContext(ctx, "stage started",
		"stage", stage,
		"steps", steps,
	)
}

// LogStageDone logs the end of a stage run.
func (l *Logger) LogStageDone(ctx context.Context, stage string, records uint64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stage failed",
			"stage", stage,
			"records", records,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "stage completed",
			"stage", stage,
			"records", records,
			"elapsed", elapsed,
		)
	}
}

// LogCacheAllocated logs the allocation of an off-heap cache.
func (l *Logger) LogCacheAllocated(ctx context.Context, capacity uint64, bytes uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache allocation failed",
			"capacity", capacity,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "cache allocated",
			"capacity", capacity,
			"bytes", bytes,
		)
	}
}

// LogExport logs a finished export.
func (l *Logger) LogExport(ctx context.Context, blobs int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"blobs", blobs,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "export completed",
			"blobs", blobs,
			"bytes", bytes,
		)
	}
}
