package app

import (
	"context"
	"log/slog"
	"os"
)

// newLogger builds a slog.Logger fanning out entries to stdout and the
// service log file, so behavior is visible both in containers and
// through attached volumes.
func newLogger(file *os.File) *slog.Logger {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	persisted := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(&fanoutHandler{targets: []slog.Handler{console, persisted}})
}

// fanoutHandler forwards every record to all targets and reports the
// first failure.
type fanoutHandler struct {
	targets []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.targets {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.targets {
		if err := h.Handle(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, 0, len(f.targets))
	for _, h := range f.targets {
		next = append(next, h.WithAttrs(attrs))
	}
	return &fanoutHandler{targets: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, 0, len(f.targets))
	for _, h := range f.targets {
		next = append(next, h.WithGroup(name))
	}
	return &fanoutHandler{targets: next}
}
