package renderer

import (
	"strings"
	"testing"

	"github.com/ryanlewis/figpad/internal/parser"
)

// blockFont draws every letter as two copies of itself on each row. Space
// is two blanks and '$' is the hardblank.
func blockFont(height int) *parser.Font {
	f := &parser.Font{
		Hardblank:  '$',
		Height:     height,
		Baseline:   height,
		MaxLength:  4,
		OldLayout:  -1,
		Characters: make(map[rune][]string),
	}
	add := func(c rune, row string) {
		rows := make([]string, height)
		for i := range rows {
			rows[i] = row
		}
		f.Characters[c] = rows
	}
	add(' ', "  ")
	for _, c := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ$|/\\[]{}()<>_" {
		add(c, string([]rune{c, c}))
	}
	add('W', "1234")
	return f
}

// createMinimalFont has shaped glyphs with interior spacing.
func createMinimalFont() *parser.Font {
	return &parser.Font{
		Hardblank: '$',
		Height:    3,
		Baseline:  2,
		MaxLength: 5,
		OldLayout: -1,
		Characters: map[rune][]string{
			' ': {"   ", "   ", "   "},
			'H': {"H  H ", "HHHH ", "H  H "},
			'I': {" III ", "  I  ", " III "},
		},
	}
}

func mustRender(t *testing.T, text string, font *parser.Font, opts *Options) string {
	t.Helper()
	out, err := Render(text, font, opts)
	if err != nil {
		t.Fatalf("Render(%q): %v", text, err)
	}
	return out
}

func lines(rows ...string) string { return strings.Join(rows, "\n") }
