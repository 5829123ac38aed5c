package figpad

import (
	"github.com/ryanlewis/figpad/internal/debug"
	"github.com/ryanlewis/figpad/internal/parser"
	"github.com/ryanlewis/figpad/internal/renderer"
)

// Font is an immutable parsed FIGfont, safe to share across goroutines.
type Font struct {
	// parsed holds the glyph table; never mutated after parsing
	parsed *parser.Font

	// Name is the font name, usually the file name without extension
	Name string

	// Layout is the font's default horizontal layout
	Layout Layout

	// Hardblank is the header character that marks a fixed space inside a
	// glyph. It blocks smushing and renders as a space.
	Hardblank rune

	// Height is the number of rows in every glyph
	Height int

	// Baseline is the number of rows from the top of a glyph to the
	// baseline of its lowercase letters
	Baseline int

	// MaxLen is the widest glyph row in the file, including end marks
	MaxLen int

	// OldLayout is the header's legacy layout value, -1 when absent
	OldLayout int

	// PrintDirection is 0 for left to right, 1 for right to left
	PrintDirection int

	CommentLines int

	// Comments are the header comment lines
	Comments []string
}

// Glyph returns the rows for r. The returned slice must not be modified.
func (f *Font) Glyph(r rune) ([]string, bool) {
	if f == nil || f.parsed == nil {
		return nil, false
	}
	g, ok := f.parsed.Characters[r]
	return g, ok
}

// GlyphCount returns the number of characters the font defines.
func (f *Font) GlyphCount() int {
	if f == nil || f.parsed == nil {
		return 0
	}
	return len(f.parsed.Characters)
}

// HasMissingGlyph reports whether the font carries a glyph (code 0) used
// in place of characters it does not define.
func (f *Font) HasMissingGlyph() bool {
	return f != nil && f.parsed != nil && f.parsed.HasMissingGlyph()
}

// Option configures rendering.
type Option func(*options)

type options struct {
	layout         *Layout
	printDirection *int
	unknownRune    *rune
	trimWhitespace bool
	width          int
	trace          *debug.Session
}

// WithLayout overrides the font's layout. The layout is validated by
// NormalizeLayout when rendering starts.
func WithLayout(layout Layout) Option {
	return func(o *options) { o.layout = &layout }
}

// WithPrintDirection overrides the font's direction: 0 left-to-right,
// 1 right-to-left.
func WithPrintDirection(direction int) Option {
	return func(o *options) { o.printDirection = &direction }
}

// WithUnknownRune replaces characters missing from the font with r. Without
// it, the font's missing-character glyph is used when it has one, otherwise
// rendering fails with ErrUnsupportedRune.
func WithUnknownRune(r rune) Option {
	return func(o *options) { o.unknownRune = &r }
}

// WithTrimWhitespace removes trailing spaces from every output row.
func WithTrimWhitespace(trim bool) Option {
	return func(o *options) { o.trimWhitespace = trim }
}

// WithWidth sets the maximum output width in columns. Lines are wrapped at
// word boundaries when possible.
//
// Width Behavior:
//   - 0 or negative: no wrapping, each input line renders as one block
//   - 1 to 10000: rows never exceed width unless a single glyph is wider
//   - above 10000: clamped to 10000
//
// Line Breaking:
//   - breaks after the last word that fits; spaces at the break are absorbed
//   - a word wider than the limit is split between characters
//   - each wrapped line becomes its own block of Height rows
//
// Example:
//
//	// narrow banner for a sidebar
//	figpad.Render("Hello world", font, figpad.WithWidth(40))
func WithWidth(width int) Option {
	return func(o *options) {
		if width > renderer.DefaultWidth {
			width = renderer.DefaultWidth
		}
		o.width = width
	}
}

func withTrace(s *debug.Session) Option {
	return func(o *options) { o.trace = s }
}
