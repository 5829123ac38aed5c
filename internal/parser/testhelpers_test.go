package parser

import (
	"fmt"
	"strings"
	"testing"
)

// germanChars are the required characters after ASCII, in file order.
var germanChars = []rune{196, 214, 220, 228, 246, 252, 223}

// generateFont builds a font with every required character. The space
// glyph is "  " on each row, ASCII is "X" and the German characters "G".
// extra is appended verbatim after the required set.
func generateFont(header string, height int, extra string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")

	glyph := func(content string) {
		for row := 0; row < height; row++ {
			sb.WriteString(content)
			if row == height-1 {
				sb.WriteString("@@\n")
			} else {
				sb.WriteString("@\n")
			}
		}
	}
	glyph("  ")
	for i := 33; i <= 126; i++ {
		glyph("X")
	}
	for range germanChars {
		glyph("G")
	}
	sb.WriteString(extra)
	return sb.String()
}

func parseTestFont(t *testing.T, data string) *Font {
	t.Helper()
	f, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

// validateChar fails the test unless char exists with exactly expected rows.
func validateChar(t *testing.T, f *Font, char rune, expected []string) {
	t.Helper()
	glyph, ok := f.Characters[char]
	if !ok {
		t.Fatalf("character %d not found", char)
	}
	if len(glyph) != len(expected) {
		t.Fatalf("character %d has %d rows, want %d", char, len(glyph), len(expected))
	}
	for i, want := range expected {
		if glyph[i] != want {
			t.Errorf("character %d row %d = %q, want %q", char, i, glyph[i], want)
		}
	}
}

func validateCharCount(t *testing.T, f *Font, expected int) {
	t.Helper()
	if n := len(f.Characters); n != expected {
		t.Errorf("font has %d characters, want %d", n, expected)
	}
}

func rows(content string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = content
	}
	return out
}

func codetag(code string, content string, height int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s tagged glyph\n", code)
	for row := 0; row < height; row++ {
		sb.WriteString(content)
		sb.WriteString("@\n")
	}
	return sb.String()
}
