package flfgen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Style selects how pixels become characters.
type Style string

const (
	// Filling draws every pixel as a two-character fill or blank pair
	Filling Style = "filling"
	// HalfBlock packs two pixel rows into one using block elements
	HalfBlock Style = "half-block"
	// HalfASCII packs two pixel rows into one using ASCII punctuation
	HalfASCII Style = "half-ascii"
	// Braille packs 2x4 pixel cells into braille patterns
	Braille Style = "braille"
)

// Styles lists the supported styles.
var Styles = []Style{Filling, HalfBlock, HalfASCII, Braille}

// ParseStyle returns the style named s.
func ParseStyle(s string) (Style, error) {
	for _, st := range Styles {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style %q", s)
}

const (
	defaultFill  = "██"
	defaultBlank = "  "

	hardblank = '$'
	endmark   = '@'
)

// deutschChars follow ASCII in every FIGfont.
var deutschChars = [...]rune{196, 214, 220, 228, 246, 252, 223}

// missingPattern is the missing-character glyph used when the source has
// no U+FFFD.
const missingPattern = "0000007E665A5A7A76767E76767E0000"

// Options configures Generate.
type Options struct {
	Style Style
	// Fill and Blank replace set and unset pixels in the Filling style.
	// They must have the same number of runes.
	Fill  string
	Blank string
	// Source names the bitmap source in the font comments
	Source string
}

type styleMetrics struct {
	height   int
	baseline int
}

var metrics = map[Style]styleMetrics{
	Filling:   {height: 16, baseline: 14},
	HalfBlock: {height: 8, baseline: 7},
	HalfASCII: {height: 8, baseline: 7},
	Braille:   {height: 4, baseline: 4},
}

func isRequired(code rune) bool {
	if code >= 32 && code <= 126 {
		return true
	}
	for _, c := range deutschChars {
		if code == c {
			return true
		}
	}
	return false
}

// Generate writes a FIGfont built from set. The set must cover ASCII 32-126.
// Every other glyph becomes a code-tagged character. Code 0 holds the
// missing-character glyph, taken from code 0 or U+FFFD in the set when
// present.
func Generate(w io.Writer, set GlyphSet, opts Options) error {
	m, ok := metrics[opts.Style]
	if !ok {
		return fmt.Errorf("unknown style %q", opts.Style)
	}
	fill, blank := opts.Fill, opts.Blank
	if fill == "" {
		fill = defaultFill
	}
	if blank == "" {
		blank = defaultBlank
	}
	if utf8.RuneCountInString(fill) != utf8.RuneCountInString(blank) {
		return errors.New("fill and blank must have the same width")
	}
	if strings.ContainsRune(fill+blank, endmark) || strings.ContainsRune(fill+blank, hardblank) {
		return fmt.Errorf("fill and blank cannot contain %q or %q", endmark, hardblank)
	}
	conv := converter{style: opts.Style, fill: fill, blank: blank}

	glyphs := make(map[rune][]string, len(set)+1)
	for code, bm := range set {
		rows, err := conv.convert(bm)
		if err != nil {
			return err
		}
		glyphs[code] = rows
	}
	for c := rune(32); c <= 126; c++ {
		if _, ok := glyphs[c]; !ok {
			return fmt.Errorf("source has no glyph for U+%04X", c)
		}
	}

	missing, ok := set[0]
	if !ok {
		missing, ok = set[0xFFFD]
	}
	if !ok {
		bm, err := parseHexLine("FFFD:" + missingPattern)
		if err != nil {
			return err
		}
		missing = bm
	}
	missingRows, err := conv.convert(missing)
	if err != nil {
		return err
	}

	var tagged []rune
	for _, code := range set.Codes() {
		if !isRequired(code) && code != 0 {
			tagged = append(tagged, code)
		}
	}

	maxLen := utf8.RuneCountInString(missingRows[0])
	for _, rows := range glyphs {
		if n := utf8.RuneCountInString(rows[0]); n > maxLen {
			maxLen = n
		}
	}

	comments := []string{
		fmt.Sprintf("Generated by figpad gen, style %s.", opts.Style),
		"Source bitmaps: " + sourceName(opts.Source) + ".",
	}
	if opts.Style == Braille {
		comments = append(comments, "Dot layout inspired by drawille <https://github.com/asciimoo/drawille>.")
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "flf2a%c %d %d %d -1 %d 0 0 %d\n",
		hardblank, m.height, m.baseline, maxLen+2, len(comments), len(tagged)+1)
	for _, c := range comments {
		bw.WriteString(c)
		bw.WriteByte('\n')
	}

	for c := rune(32); c <= 126; c++ {
		writeGlyph(bw, glyphs[c])
	}
	// German characters the source lacks are left blank
	empty := make([]string, m.height)
	for _, c := range deutschChars {
		if rows, ok := glyphs[c]; ok {
			writeGlyph(bw, rows)
		} else {
			writeGlyph(bw, empty)
		}
	}

	bw.WriteString("0x0 missing character\n")
	writeGlyph(bw, missingRows)
	for _, code := range tagged {
		fmt.Fprintf(bw, "0x%X %c\n", code, code)
		writeGlyph(bw, glyphs[code])
	}
	return bw.Flush()
}

func sourceName(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func writeGlyph(w *bufio.Writer, rows []string) {
	for i, row := range rows {
		w.WriteString(row)
		w.WriteRune(endmark)
		if i == len(rows)-1 {
			w.WriteRune(endmark)
		}
		w.WriteByte('\n')
	}
}

type converter struct {
	style Style
	fill  string
	blank string
}

// halfBlocks and halfASCII are indexed by top<<1 | bottom.
var (
	halfBlocks = [4]rune{' ', '▄', '▀', '█'}
	halfASCII  = [4]rune{' ', '.', '\'', ':'}
)

// brailleDots maps dot bit i to its (row, col) offset in the 2x4 cell.
var brailleDots = [8][2]int{
	{0, 0}, {1, 0}, {2, 0},
	{0, 1}, {1, 1}, {2, 1},
	{3, 0}, {3, 1},
}

func (c converter) convert(bm Bitmap) ([]string, error) {
	if len(bm.Rows) != BitmapHeight {
		return nil, fmt.Errorf("U+%04X: bitmap has %d rows, want %d", bm.Code, len(bm.Rows), BitmapHeight)
	}
	width := bm.Width()

	var rows []string
	switch c.style {
	case Filling:
		for _, px := range bm.Rows {
			var sb strings.Builder
			for _, on := range px {
				if on {
					sb.WriteString(c.fill)
				} else {
					sb.WriteString(c.blank)
				}
			}
			rows = append(rows, sb.String())
		}
	case HalfBlock, HalfASCII:
		table := halfBlocks
		if c.style == HalfASCII {
			table = halfASCII
		}
		for y := 0; y < BitmapHeight; y += 2 {
			line := make([]rune, width)
			for x := range line {
				line[x] = table[bit(bm.Rows[y][x])<<1|bit(bm.Rows[y+1][x])]
			}
			rows = append(rows, string(line))
		}
	case Braille:
		for y := 0; y < BitmapHeight; y += 4 {
			line := make([]rune, 0, width/2)
			for x := 0; x < width; x += 2 {
				r := rune(0x2800)
				for dot, off := range brailleDots {
					if bm.Rows[y+off[0]][x+off[1]] {
						r += 1 << dot
					}
				}
				line = append(line, r)
			}
			rows = append(rows, string(line))
		}
	default:
		return nil, fmt.Errorf("unknown style %q", c.style)
	}
	return rows, nil
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}
