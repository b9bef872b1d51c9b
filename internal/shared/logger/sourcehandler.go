package logger

import (
	"context"
	"log/slog"
	"runtime"
)

type levelSourceHandler struct {
	next   slog.Handler
	levels map[slog.Level]bool
}

// NewLevelSourceHandler attaches the caller location only to records whose
// level is listed. The wrapped handler must not add source itself.
func NewLevelSourceHandler(next slog.Handler, levels ...slog.Level) slog.Handler {
	set := make(map[slog.Level]bool, len(levels))
	for _, l := range levels {
		set[l] = true
	}
	return &levelSourceHandler{next: next, levels: set}
}

func (h *levelSourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *levelSourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.levels[r.Level] && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		r.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		}))
	}
	return h.next.Handle(ctx, r)
}

func (h *levelSourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelSourceHandler{next: h.next.WithAttrs(attrs), levels: h.levels}
}

func (h *levelSourceHandler) WithGroup(name string) slog.Handler {
	return &levelSourceHandler{next: h.next.WithGroup(name), levels: h.levels}
}
