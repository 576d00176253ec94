package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// TimestampFormat is ISO-8601 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// LineHandler writes one "<timestamp> - <message>" line per record.
// Attributes and groups are accepted but never rendered, so the file
// keeps a fixed, greppable shape.
type LineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
}

// NewLineHandler creates a LineHandler writing to w.
// A nil level means slog.LevelInfo.
func NewLineHandler(w io.Writer, level slog.Leveler) *LineHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &LineHandler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled reports whether level reaches the handler's minimum level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record as a single line with a single Write call.
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, len(TimestampFormat)+len(r.Message)+4)
	buf = r.Time.UTC().AppendFormat(buf, TimestampFormat)
	buf = append(buf, " - "...)
	buf = append(buf, r.Message...)
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns h; attributes are not part of the line format.
func (h *LineHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

// WithGroup returns h; groups are not part of the line format.
func (h *LineHandler) WithGroup(_ string) slog.Handler { return h }
