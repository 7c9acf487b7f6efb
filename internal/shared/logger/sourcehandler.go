package logger

import (
	"context"
	"log/slog"
	"runtime"
)

// sourceByLevelHandler adds source location only for selected levels so that
// routine info logs stay compact while warnings and errors remain traceable.
// The wrapped handler must be constructed with AddSource: false.
type sourceByLevelHandler struct {
	handler   slog.Handler
	addSource map[slog.Level]bool
}

// NewSourceByLevelHandler wraps handler and attaches source location to
// records whose level is in levels.
func NewSourceByLevelHandler(handler slog.Handler, levels ...slog.Level) slog.Handler {
	m := make(map[slog.Level]bool, len(levels))
	for _, l := range levels {
		m[l] = true
	}
	return &sourceByLevelHandler{handler: handler, addSource: m}
}

func (h *sourceByLevelHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.addSource[r.Level] {
		// Skip runtime.Callers, this frame and the slog internal frame.
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		frames := runtime.CallersFrames(pcs[:])
		f, _ := frames.Next()

		r.AddAttrs(slog.Attr{
			Key: slog.SourceKey,
			Value: slog.AnyValue(&slog.Source{
				Function: f.Function,
				File:     f.File,
				Line:     f.Line,
			}),
		})
	}
	return h.handler.Handle(ctx, r)
}

func (h *sourceByLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sourceByLevelHandler{handler: h.handler.WithAttrs(attrs), addSource: h.addSource}
}

func (h *sourceByLevelHandler) WithGroup(name string) slog.Handler {
	return &sourceByLevelHandler{handler: h.handler.WithGroup(name), addSource: h.addSource}
}

func (h *sourceByLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}
