// Package debug traces figpad's font loading, rendering and session events.
//
// The tracer follows these principles:
//   - Single switch: FIGPAD_TRACE=1 or --trace enables it
//   - Zero overhead when disabled: a nil *Tracer or *Session is a no-op
//   - Session scoped: every render or load gets its own session ID
//   - Machine parsable: JSON Lines by default, pretty format optional
package debug

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var enabled atomic.Bool

// SetEnabled switches tracing on or off process-wide.
func SetEnabled(on bool) { enabled.Store(on) }

// Enabled reports whether tracing is switched on.
func Enabled() bool { return enabled.Load() }

// InitFromEnv reads FIGPAD_TRACE and reports whether FIGPAD_TRACE_PRETTY
// asks for the human-readable format.
func InitFromEnv() (pretty bool) {
	if os.Getenv("FIGPAD_TRACE") == "1" {
		SetEnabled(true)
	}
	return os.Getenv("FIGPAD_TRACE_PRETTY") == "1"
}

// Tracer hands out sessions that share one sink. Loads run on their own
// goroutines, so writes to the sink are serialized.
type Tracer struct {
	mu   sync.Mutex
	sink Sink
}

// NewTracer returns a tracer writing to sink, or nil when tracing is
// disabled or sink is nil.
func NewTracer(sink Sink) *Tracer {
	if !Enabled() || sink == nil {
		return nil
	}
	return &Tracer{sink: sink}
}

func (t *Tracer) write(evt Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	//nolint:errcheck // trace failures must not break rendering
	t.sink.Write(evt)
}

// Close flushes and closes the underlying sink.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sink.Close()
}

// Session groups the events of one operation.
type Session struct {
	tracer    *Tracer
	sessionID string
	kind      string
	startTime time.Time
}

// Session starts a session of the given kind ("render", "load", ...).
func (t *Tracer) Session(kind string) *Session {
	if t == nil {
		return nil
	}
	s := &Session{
		tracer:    t,
		sessionID: uuid.NewString(),
		kind:      kind,
		startTime: time.Now(),
	}
	s.Emit("session", "Start", map[string]any{"kind": kind})
	return s
}

// SessionID returns the session's identifier, empty for a nil session.
func (s *Session) SessionID() string {
	if s == nil {
		return ""
	}
	return s.sessionID
}

// Emit records one event. It is a no-op on a nil session.
func (s *Session) Emit(phase, event string, data any) {
	if s == nil {
		return
	}
	s.tracer.write(Event{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		SessionID: s.sessionID,
		Phase:     phase,
		Event:     event,
		Data:      data,
	})
}

// End emits the session end event with the elapsed time.
func (s *Session) End() {
	if s == nil {
		return
	}
	s.Emit("session", "End", map[string]int64{
		"elapsed_ms": time.Since(s.startTime).Milliseconds(),
	})
}

// Event is the envelope written for every trace record.
type Event struct {
	Timestamp string `json:"ts"`
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	Event     string `json:"event"`
	Data      any    `json:"data"`
}
