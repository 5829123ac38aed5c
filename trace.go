package figpad

import (
	"io"

	"github.com/ryanlewis/figpad/internal/debug"
)

// Tracer writes machine-readable load, render and session events. A nil
// *Tracer disables tracing.
type Tracer struct {
	t *debug.Tracer
}

// NewTracer writes JSON Lines to w, or a human-readable format when pretty
// is set. Close flushes it.
func NewTracer(w io.Writer, pretty bool) *Tracer {
	debug.SetEnabled(true)
	var sink debug.Sink = debug.NewJSONSink(w)
	if pretty {
		sink = debug.NewPrettySink(w)
	}
	return &Tracer{t: debug.NewTracer(sink)}
}

// Close flushes buffered events.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	return t.t.Close()
}

func (t *Tracer) session(kind string) *debug.Session {
	if t == nil {
		return nil
	}
	return t.t.Session(kind)
}
