package savedit

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with savedit-specific helpers so every
// operation logs with the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
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

// NewTextLogger creates a Logger that writes human-readable text to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that writes JSON lines to w.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything. It is the default for Document and
// BackupStore.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// WithPath tags subsequent records with a file path.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{Logger: l.Logger.With("path", path)}
}

// LogLoad logs a document load.
func (l *Logger) LogLoad(ctx context.Context, size int, container Container, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed", "error", err)
		return
	}
	l.InfoContext(ctx, "save loaded",
		"size", size,
		"container", container.String(),
	)
}

// LogPersist logs a write of the document to disk.
func (l *Logger) LogPersist(ctx context.Context, target string, size int, backup string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"target", target,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "save written",
		"target", target,
		"size", size,
		"backup", backup,
	)
}

// LogBackup logs a backup creation.
func (l *Logger) LogBackup(ctx context.Context, source string, rec BackupRecord, err error) {
	if err != nil {
		l.ErrorContext(ctx, "backup failed",
			"source", source,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "backup created",
		"source", source,
		"backup", rec.BackupPath,
		"size", rec.Size,
		"hash", rec.Hash,
	)
}

// LogRestore logs a restore of a backup over a target.
func (l *Logger) LogRestore(ctx context.Context, backup, target string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"backup", backup,
			"target", target,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "backup restored",
		"backup", backup,
		"target", target,
	)
}

// LogCleanup logs a retention pass.
func (l *Logger) LogCleanup(ctx context.Context, report CleanupReport, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cleanup failed",
			"dirs_removed", report.DirsRemoved,
			"files_removed", report.FilesRemoved,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "cleanup completed",
		"dirs_removed", report.DirsRemoved,
		"files_removed", report.FilesRemoved,
	)
}
