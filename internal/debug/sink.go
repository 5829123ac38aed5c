package debug

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Sink is a trace output destination.
type Sink interface {
	Write(event Event) error
	Flush() error
	Close() error
}

// JSONSink writes events as JSON Lines.
type JSONSink struct {
	w       *bufio.Writer
	encoder *json.Encoder
}

// NewJSONSink returns a JSON Lines sink writing to w.
func NewJSONSink(w io.Writer) *JSONSink {
	bw := bufio.NewWriter(w)
	return &JSONSink{w: bw, encoder: json.NewEncoder(bw)}
}

// Write encodes event as one line.
func (s *JSONSink) Write(event Event) error {
	return s.encoder.Encode(event)
}

// Flush writes buffered data to the underlying writer.
func (s *JSONSink) Flush() error { return s.w.Flush() }

// Close flushes the buffer.
func (s *JSONSink) Close() error { return s.Flush() }

// PrettySink writes events in a human-readable format.
type PrettySink struct {
	w *bufio.Writer
}

// NewPrettySink returns a pretty-format sink writing to w.
func NewPrettySink(w io.Writer) *PrettySink {
	return &PrettySink{w: bufio.NewWriter(w)}
}

// Write formats event as a header line followed by indented fields.
func (s *PrettySink) Write(event Event) error {
	fmt.Fprintf(s.w, "[%s] [%s/%s] session=%s\n", event.Timestamp, event.Phase, event.Event, event.SessionID)

	switch d := event.Data.(type) {
	case RenderStartData:
		fmt.Fprintf(s.w, "  text: %q (length: %d)\n", d.Text, d.TextLength)
		fmt.Fprintf(s.w, "  char_height: %d, hardblank: %s\n", d.CharHeight, runeStr(d.Hardblank))
		fmt.Fprintf(s.w, "  width_limit: %d, print_dir: %s\n", d.WidthLimit, dirStr(d.PrintDir))
		fmt.Fprintf(s.w, "  smush_mode: 0x%02X (%s)\n", d.SmushMode, strings.Join(d.SmushRules, "|"))
	case RenderEndData:
		fmt.Fprintf(s.w, "  lines: %d, runes: %d, glyphs: %d, bytes: %d, elapsed_ms: %d\n",
			d.TotalLines, d.TotalRunes, d.TotalGlyphs, d.Bytes, d.ElapsedMs)
	case GlyphData:
		fmt.Fprintf(s.w, "  index: %d, rune: %s, width: %d, smush: %d\n", d.Index, runeStr(d.Rune), d.Width, d.SmushAmount)
		if d.UnknownSubst {
			fmt.Fprintf(s.w, "  unknown_subst: true\n")
		}
	case SmushDecisionData:
		fmt.Fprintf(s.w, "  row=%d col=%d: %s + %s → %s (%s)\n",
			d.Row, d.Col, runeStr(d.Lch), runeStr(d.Rch), runeStr(d.Result), d.Rule)
	case SplitData:
		fmt.Fprintf(s.w, "  reason: %s, fsm: %d → %d, outline_len: %d\n", d.Reason, d.FSMPrev, d.FSMNext, d.OutlineLen)
	case LoadStartData:
		fmt.Fprintf(s.w, "  font: %s, location: %s, attempt: %d\n", d.FontID, d.Location, d.Attempt)
	case LoadEndData:
		fmt.Fprintf(s.w, "  font: %s, state: %s, bytes: %d, glyphs: %d, elapsed_ms: %d\n",
			d.FontID, d.State, d.Bytes, d.Glyphs, d.ElapsedMs)
		if d.Error != "" {
			fmt.Fprintf(s.w, "  error: %s\n", d.Error)
		}
	case FontHeaderData:
		fmt.Fprintf(s.w, "  height: %d, baseline: %d, max_length: %d, hardblank: %s\n",
			d.Height, d.Baseline, d.MaxLength, runeStr(d.Hardblank))
		fmt.Fprintf(s.w, "  old_layout: %d, full_layout: %d, print_dir: %s, codetags: %d\n",
			d.OldLayout, d.FullLayout, dirStr(d.PrintDir), d.CodetagCount)
	case SessionEventData:
		fmt.Fprintf(s.w, "  %s: font=%s state=%s width=%d rendered=%t\n", d.Kind, d.FontID, d.State, d.Width, d.Rendered)
		if d.Notice != "" {
			fmt.Fprintf(s.w, "  notice: %s\n", d.Notice)
		}
	case map[string]any:
		for _, k := range sortedKeys(d) {
			fmt.Fprintf(s.w, "  %s: %v\n", k, d[k])
		}
	case map[string]int64:
		for _, k := range sortedKeys(d) {
			fmt.Fprintf(s.w, "  %s: %d\n", k, d[k])
		}
	default:
		fmt.Fprintf(s.w, "  data: %+v\n", d)
	}
	return nil
}

// Flush writes buffered data to the underlying writer.
func (s *PrettySink) Flush() error { return s.w.Flush() }

// Close flushes the buffer.
func (s *PrettySink) Close() error { return s.Flush() }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// runeStr formats a rune for display: 'X' (0x58), or NUL for 0.
func runeStr(r rune) string {
	if r == 0 {
		return "NUL"
	}
	if r >= 32 && r < 127 {
		return fmt.Sprintf("'%c' (0x%02X)", r, r)
	}
	return fmt.Sprintf("U+%04X", r)
}

func dirStr(dir int) string {
	if dir == 0 {
		return "LTR"
	}
	return "RTL"
}
