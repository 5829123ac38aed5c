package figpad

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Pipeline turns (font, text, width) into banner text. It is a pure
// function of its inputs plus the fixed render options it was built with.
type Pipeline struct {
	opts   []Option
	tracer *Tracer
}

// NewPipeline returns a pipeline applying opts to every render.
func NewPipeline(opts ...Option) *Pipeline {
	return &Pipeline{opts: opts}
}

// WithTracer returns a copy of p that records render events to t.
func (p *Pipeline) WithTracer(t *Tracer) *Pipeline {
	cp := *p
	cp.tracer = t
	return &cp
}

// Render lays out text with font. A width of zero or less means no
// wrapping. Empty text yields a blank block of the font's height and never
// fails. Engine failures are returned as *RenderError.
func (p *Pipeline) Render(font *Font, text string, width int) (string, error) {
	if font == nil {
		return "", &RenderError{Reason: "no font", Err: ErrUnknownFont}
	}
	if text == "" {
		return strings.Repeat("\n", font.Height-1), nil
	}

	// glyph tables are keyed by precomposed code points
	text = norm.NFC.String(text)

	sess := p.tracer.session("render")
	defer sess.End()

	opts := make([]Option, 0, len(p.opts)+2)
	opts = append(opts, p.opts...)
	opts = append(opts, WithWidth(width), withTrace(sess))

	out, err := Render(text, font, opts...)
	if err != nil {
		reason := "render failed"
		switch {
		case errors.Is(err, ErrUnsupportedRune):
			reason = "unsupported character"
		case errors.Is(err, ErrLayoutConflict):
			reason = "invalid layout"
		}
		return "", &RenderError{Font: FontID(font.Name), Reason: reason, Err: err}
	}
	return out, nil
}
