// Package flfgen converts unifont-style .hex bitmaps into FIGfonts.
//
// A .hex file has one glyph per line, "CODE:BITS", where CODE is the code
// point in hex and BITS is a 16 row bitmap: 32 hex digits for an 8 pixel
// wide glyph or 64 for a 16 pixel wide one.
package flfgen

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// BitmapHeight is the pixel height of every .hex glyph.
const BitmapHeight = 16

// Bitmap is one glyph: Rows[y][x] is true where the pixel is set.
type Bitmap struct {
	Code rune
	Rows [][]bool
}

// Width returns the pixel width.
func (b Bitmap) Width() int {
	if len(b.Rows) == 0 {
		return 0
	}
	return len(b.Rows[0])
}

// GlyphSet holds bitmaps by code point.
type GlyphSet map[rune]Bitmap

// Codes returns the code points in ascending order.
func (s GlyphSet) Codes() []rune {
	codes := make([]rune, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ParseHex reads a .hex file. Blank lines and lines starting with '#' are
// skipped.
func ParseHex(r io.Reader) (GlyphSet, error) {
	set := make(GlyphSet)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		bm, err := parseHexLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		set[bm.Code] = bm
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading hex: %w", err)
	}
	return set, nil
}

func parseHexLine(line string) (Bitmap, error) {
	codeStr, bits, ok := strings.Cut(line, ":")
	if !ok {
		return Bitmap{}, fmt.Errorf("missing ':' in %q", line)
	}
	code, err := strconv.ParseUint(codeStr, 16, 32)
	if err != nil {
		return Bitmap{}, fmt.Errorf("invalid code point %q", codeStr)
	}

	var width int
	switch len(bits) {
	case 32:
		width = 8
	case 64:
		width = 16
	default:
		return Bitmap{}, fmt.Errorf("U+%04X: bitmap has %d hex digits, want 32 or 64", code, len(bits))
	}
	raw, err := hex.DecodeString(bits)
	if err != nil {
		return Bitmap{}, fmt.Errorf("U+%04X: %w", code, err)
	}

	bytesPerRow := width / 8
	rows := make([][]bool, BitmapHeight)
	for y := range rows {
		row := make([]bool, width)
		for x := 0; x < width; x++ {
			b := raw[y*bytesPerRow+x/8]
			row[x] = b&(0x80>>(x%8)) != 0
		}
		rows[y] = row
	}
	return Bitmap{Code: rune(code), Rows: rows}, nil
}
