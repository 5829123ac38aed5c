// Package renderer lays out FIGcharacters into lines of ASCII art, applying
// kerning, smushing and word wrapping the way figlet does.
package renderer

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ryanlewis/figpad/internal/debug"
	"github.com/ryanlewis/figpad/internal/parser"
)

// Word break states, following figlet:
//
//	-1 absorbing spaces after a forced break
//	 0 start of line or after spaces at the start
//	 1 inside the first word
//	 2 in spaces after a word
//	 3 inside a later word
const (
	wbAbsorb = -1
	wbStart  = 0
	wbWord   = 1
	wbSpace  = 2
	wbLater  = 3
)

type renderState struct {
	font *parser.Font
	opts *Options

	outputLine  [][]rune
	currentChar [][]rune
	inchrline   []rune
	glyphCache  map[rune][][]rune
	out         []byte

	outlineLen        int
	limit             int
	currentCharWidth  int
	previousCharWidth int
	height            int
	smushMode         int
	glyphs            int
	lines             int

	hardblank  rune
	right2left bool
	trim       bool

	trace *debug.Session
}

// Render lays out text with font and returns the rows joined by newlines.
func Render(text string, font *parser.Font, opts *Options) (string, error) {
	var sb strings.Builder
	if err := RenderTo(&sb, text, font, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderTo writes the rendered text to w. Empty input produces a blank
// block of the font's height.
func RenderTo(w io.Writer, text string, font *parser.Font, opts *Options) error {
	if font == nil {
		return ErrNilFont
	}
	if opts == nil {
		opts = &Options{SmushMode: SmushModeFromHeader(font.OldLayout, font.FullLayout, font.FullLayoutSet)}
	}

	st := acquireRenderState(font, opts)
	defer releaseRenderState(st)

	start := time.Now()
	st.trace.Emit("render", "Start", debug.RenderStartData{
		Text:       text,
		TextLength: utf8.RuneCountInString(text),
		CharHeight: st.height,
		Hardblank:  st.hardblank,
		WidthLimit: st.limit,
		PrintDir:   opts.PrintDirection,
		SmushMode:  st.smushMode,
		SmushRules: debug.FormatSmushRules(st.smushMode),
	})

	if err := st.run(normalizeInput(text)); err != nil {
		st.trace.Emit("render", "Error", map[string]any{"error": err.Error()})
		return err
	}

	var out []byte
	if len(st.out) == 0 {
		out = []byte(strings.Repeat("\n", st.height-1))
	} else {
		out = st.out[:len(st.out)-1]
	}

	st.trace.Emit("render", "End", debug.RenderEndData{
		TotalLines:  st.lines,
		TotalRunes:  utf8.RuneCountInString(text),
		TotalGlyphs: st.glyphs,
		ElapsedMs:   time.Since(start).Milliseconds(),
		Bytes:       len(out),
	})

	_, err := w.Write(out)
	return err
}

// normalizeInput maps whitespace to space or newline the way figlet reads
// its input: tabs become spaces and CR, VT and FF become line breaks.
func normalizeInput(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t':
			return ' '
		case '\r', '\v', '\f':
			return '\n'
		}
		return r
	}, text)
}

func (st *renderState) run(text string) error {
	wordbreak := wbStart
	for _, c := range text {
		if (c > 0 && c < ' ' && c != '\n') || c == 127 {
			continue
		}

		for retry := true; retry; {
			retry = false

			if wordbreak == wbAbsorb {
				if c == ' ' {
					break
				}
				if c == '\n' {
					wordbreak = wbStart
					break
				}
				wordbreak = wbStart
			}

			if c == '\n' {
				st.printLine("newline")
				wordbreak = wbStart
				continue
			}

			added, err := st.addChar(c)
			if err != nil {
				return err
			}

			prev := wordbreak
			switch {
			case added && c != ' ':
				if wordbreak >= wbSpace {
					wordbreak = wbLater
				} else {
					wordbreak = wbWord
				}
			case added:
				if wordbreak > wbStart {
					wordbreak = wbSpace
				} else {
					wordbreak = wbStart
				}
			case st.outlineLen == 0:
				st.printOversized()
				wordbreak = wbAbsorb
			case c == ' ':
				if wordbreak == wbSpace {
					if err := st.splitLine(); err != nil {
						return err
					}
				} else {
					st.printLine("width")
				}
				wordbreak = wbAbsorb
			default:
				if wordbreak >= wbSpace {
					if err := st.splitLine(); err != nil {
						return err
					}
				} else {
					st.printLine("width")
				}
				if wordbreak == wbLater {
					wordbreak = wbWord
				} else {
					wordbreak = wbStart
				}
				retry = true
			}
			if !added {
				st.trace.Emit("render", "Split", debug.SplitData{
					Reason: "width", FSMPrev: prev, FSMNext: wordbreak, OutlineLen: st.outlineLen,
				})
			}
		}
	}

	if st.outlineLen != 0 {
		st.printLine("end")
	}
	return nil
}

// glyph returns the rows of c as runes, substituting the unknown rune or
// the font's missing-character glyph when c has none.
func (st *renderState) glyph(c rune) ([][]rune, bool, error) {
	if g, ok := st.glyphCache[c]; ok {
		return g, false, nil
	}

	rows, ok := st.font.Characters[c]
	substituted := false
	if !ok {
		switch {
		case st.opts.UnknownRune != nil:
			rows, ok = st.font.Characters[*st.opts.UnknownRune]
		default:
			rows, ok = st.font.Characters[parser.MissingGlyph]
		}
		if !ok {
			return nil, false, fmt.Errorf("%w: %q (U+%04X)", ErrUnsupportedRune, c, c)
		}
		substituted = true
	}
	if len(rows) != st.height {
		return nil, false, fmt.Errorf("glyph %q has %d rows, font height is %d", c, len(rows), st.height)
	}

	g := make([][]rune, st.height)
	for i, row := range rows {
		g[i] = []rune(row)
	}
	st.glyphCache[c] = g
	return g, substituted, nil
}

// addChar appends c to the output line, overlapping it as far as the smush
// mode allows. It reports false when c does not fit within the width.
func (st *renderState) addChar(c rune) (bool, error) {
	g, substituted, err := st.glyph(c)
	if err != nil {
		return false, err
	}

	st.previousCharWidth = st.currentCharWidth
	st.currentChar = g
	st.currentCharWidth = len(g[0])

	amt := st.smushAmount()
	if st.outlineLen+st.currentCharWidth-amt > st.limit {
		return false, nil
	}

	for row := 0; row < st.height; row++ {
		line := st.outputLine[row]
		glyphRow := g[row]

		if st.right2left {
			templine := make([]rune, len(glyphRow), len(glyphRow)+len(line))
			copy(templine, glyphRow)
			for k := 0; k < amt; k++ {
				idx := st.currentCharWidth - amt + k
				lch, rch := templine[idx], at(line, k)
				if res := st.smush(lch, rch); res != 0 {
					templine[idx] = res
					st.traceSmush(row, idx, lch, rch, res)
				}
			}
			st.outputLine[row] = append(templine, line[amt:]...)
			continue
		}

		for k := 0; k < amt; k++ {
			col := st.outlineLen - amt + k
			if col < 0 || col >= len(line) {
				continue
			}
			lch, rch := line[col], glyphRow[k]
			if res := st.smush(lch, rch); res != 0 {
				line[col] = res
				st.traceSmush(row, col, lch, rch, res)
			}
		}
		st.outputLine[row] = append(line, glyphRow[amt:]...)
	}

	st.outlineLen = len(st.outputLine[0])
	st.inchrline = append(st.inchrline, c)
	st.trace.Emit("render", "Glyph", debug.GlyphData{
		Index:        st.glyphs,
		Rune:         c,
		Width:        st.currentCharWidth,
		SmushAmount:  amt,
		UnknownSubst: substituted,
	})
	st.glyphs++
	return true, nil
}

// printOversized emits the current glyph alone, cut to the width. Right to
// left keeps the rightmost columns.
func (st *renderState) printOversized() {
	for _, row := range st.currentChar {
		if st.limit >= 1 && len(row) > st.limit {
			if st.right2left {
				row = row[len(row)-st.limit:]
			} else {
				row = row[:st.limit]
			}
		}
		st.writeRow(row)
	}
	st.lines++
	st.trace.Emit("render", "Split", debug.SplitData{Reason: "oversize", FSMNext: wbAbsorb})
}

// printLine moves the output line into the result and clears it.
func (st *renderState) printLine(reason string) {
	for _, row := range st.outputLine {
		st.writeRow(row)
	}
	st.lines++
	if reason == "newline" {
		st.trace.Emit("render", "Split", debug.SplitData{Reason: reason, OutlineLen: st.outlineLen})
	}
	st.clearLine()
}

func (st *renderState) writeRow(row []rune) {
	end := len(row)
	if st.trim {
		for end > 0 && row[end-1] == ' ' {
			end--
		}
	}
	for _, r := range row[:end] {
		if r == st.hardblank {
			r = ' '
		}
		st.out = utf8.AppendRune(st.out, r)
	}
	st.out = append(st.out, '\n')
}

func (st *renderState) clearLine() {
	for i := range st.outputLine {
		st.outputLine[i] = st.outputLine[i][:0]
	}
	st.inchrline = st.inchrline[:0]
	st.outlineLen = 0
	st.previousCharWidth = 0
	st.currentCharWidth = 0
}

// splitLine breaks the line at its last run of spaces: the part before is
// printed and the word after it is carried onto a fresh line.
func (st *renderState) splitLine() error {
	n := len(st.inchrline)
	gotSpace := false
	lastSpace := n - 1
	i := n - 1
	for ; i >= 0; i-- {
		if !gotSpace && st.inchrline[i] == ' ' {
			gotSpace = true
			lastSpace = i
		}
		if gotSpace && st.inchrline[i] != ' ' {
			break
		}
	}

	part1 := append([]rune(nil), st.inchrline[:i+1]...)
	part2 := append([]rune(nil), st.inchrline[lastSpace+1:]...)

	st.clearLine()
	for _, c := range part1 {
		if _, err := st.addChar(c); err != nil {
			return err
		}
	}
	st.printLine("wordbreak")
	for _, c := range part2 {
		if _, err := st.addChar(c); err != nil {
			return err
		}
	}
	return nil
}
