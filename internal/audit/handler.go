package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

const timeFormat = "2006-01-02 15:04:05"

// jsonLineHandler is a slog handler writing one flat JSON object per record, with the
// time in timeFormat and neither level nor message. Attributes are written at the top level
// of the object; groups are flattened.
type jsonLineHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	attrs []slog.Attr
}

// newJSONLineHandler creates a handler writing to out, typically a rotating file.
func newJSONLineHandler(out io.Writer) *jsonLineHandler {
	return &jsonLineHandler{
		mu:  &sync.Mutex{},
		out: out,
	}
}

// Handle implements slog.Handler: each record is written as a separate line (JSONL).
func (h *jsonLineHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs()+1)
	fields["time"] = r.Time.UTC().Format(timeFormat)

	add := func(a slog.Attr) bool {
		if a.Key != "" && a.Value.Any() != nil {
			fields[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(append(data, '\n'))
	return err
}

// WithAttrs implements slog.Handler.
func (h *jsonLineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *jsonLineHandler) WithGroup(string) slog.Handler {
	return h
}

// Enabled implements slog.Handler: every level is recorded.
func (h *jsonLineHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

var _ slog.Handler = (*jsonLineHandler)(nil)
