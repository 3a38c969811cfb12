package iswrec

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with reconstruction-specific helpers.
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

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRunID tags every record with a batch run id.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithJob tags every record with the output map and method labels.
func (l *Logger) WithJob(mapTag, recTag string) *Logger {
	return &Logger{
		Logger: l.Logger.With("maptag", mapTag, "rectag", recTag),
	}
}

// LogEstimate logs a finished reconstruction.
func (l *Logger) LogEstimate(ctx context.Context, mapTag, recTag string, realizations int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reconstruction failed",
			"maptag", mapTag,
			"rectag", recTag,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "reconstruction completed",
		"maptag", mapTag,
		"rectag", recTag,
		"realizations", realizations,
	)
}

// LogBatch logs a finished batch.
func (l *Logger) LogBatch(ctx context.Context, jobs, completed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch failed",
			"jobs", jobs,
			"completed", completed,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "batch completed",
		"jobs", jobs,
	)
}

// LogPersist logs a saved coefficient file.
func (l *Logger) LogPersist(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "saving coefficients failed",
			"filename", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "coefficients saved",
		"filename", name,
	)
}
