package vecdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with database-specific structured fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)}))}
}

// WithCollection adds a collection field to the logger.
func (l *Logger) WithCollection(name string) *Logger {
	return &Logger{Logger: l.Logger.With("collection", name)}
}

// WithUserID adds a user id field to the logger.
func (l *Logger) WithUserID(id uint64) *Logger {
	return &Logger{Logger: l.Logger.With("user_id", id)}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, userID uint64, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "user_id", userID, "dimension", dimension, "error", err)
		return
	}
	l.DebugContext(ctx, "insert completed", "user_id", userID, "dimension", dimension)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "search completed", "k", k, "results", resultsFound)
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, userID uint64, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed", "user_id", userID, "error", err)
		return
	}
	l.DebugContext(ctx, "delete completed", "user_id", userID, "found", found)
}

// LogSaveCollection logs an atomic collection save to disk.
func (l *Logger) LogSaveCollection(ctx context.Context, name string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save collection failed", "collection", name, "error", err)
		return
	}
	l.InfoContext(ctx, "save collection completed", "collection", name, "count", count)
}

// LogLoadCollection logs loading a collection from disk.
func (l *Logger) LogLoadCollection(ctx context.Context, name string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load collection failed", "collection", name, "error", err)
		return
	}
	l.InfoContext(ctx, "load collection completed", "collection", name, "count", count)
}
