// Package parser implements FIGfont (FLF 2.0) parsing.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// minHeaderFields is the number of required numeric header fields
	minHeaderFields = 5
	// signatureRunes is "flf2a" plus the hardblank
	signatureRunes = 6

	firstPrintableASCII = 32
	lastPrintableASCII  = 126

	// asciiThreshold marks the fast path for single-byte endmarks
	asciiThreshold = 0x80
)

// MissingGlyph is the code tag of a font's missing-character glyph.
const MissingGlyph rune = 0

// deutschChars are the seven required German characters, in file order.
var deutschChars = [...]rune{196, 214, 220, 228, 246, 252, 223}

// ErrFormat is wrapped by every error caused by malformed font data.
var ErrFormat = errors.New("invalid font format")

// Font is a parsed FIGfont: header values plus the glyph table.
type Font struct {
	// Characters maps code points to glyph rows, endmarks stripped
	Characters map[rune][]string

	Comments  []string
	Signature string
	Hardblank rune

	Height         int
	Baseline       int
	MaxLength      int
	OldLayout      int
	CommentLines   int
	PrintDirection int

	FullLayout    int
	FullLayoutSet bool
	CodetagCount  int

	// Warnings holds non-fatal issues found while parsing
	Warnings []string
}

// HasMissingGlyph reports whether the font defines code tag 0.
func (f *Font) HasMissingGlyph() bool {
	_, ok := f.Characters[MissingGlyph]
	return ok
}

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// Parse reads a complete FIGfont from r.
//
// Fonts that end before all required characters are accepted; the glyphs
// read so far are kept. Code-tagged characters after the required set are
// read until EOF.
func Parse(r io.Reader) (*Font, error) {
	scanner, buf := createPooledScanner(r)
	defer releaseScannerBuffer(buf)

	font, err := parseHeader(scanner)
	if err != nil {
		return nil, err
	}
	if err := parseRequired(scanner, font); err != nil {
		return nil, err
	}
	if err := parseCodetags(scanner, font); err != nil {
		return nil, err
	}
	return font, nil
}

// ParseHeader parses only the header line and comments.
func ParseHeader(r io.Reader) (*Font, error) {
	scanner, buf := createPooledScanner(r)
	defer releaseScannerBuffer(buf)
	return parseHeader(scanner)
}

func parseHeader(scanner *bufio.Scanner) (*Font, error) {
	line, err := readHeaderLine(scanner)
	if err != nil {
		return nil, err
	}

	runes := []rune(line)
	if len(runes) < signatureRunes {
		return nil, formatErr("header line too short")
	}
	font := &Font{Signature: string(runes[:5]), Hardblank: runes[5]}
	if font.Signature != "flf2a" {
		return nil, formatErr("expected signature flf2a, got %q", font.Signature)
	}
	switch font.Hardblank {
	case ' ', '\r', '\n', 0:
		return nil, formatErr("hardblank cannot be space, CR, LF or NUL")
	}

	fields := strings.Fields(string(runes[signatureRunes:]))
	if len(fields) < minHeaderFields {
		return nil, formatErr("got %d header fields, need at least %d", len(fields), minHeaderFields)
	}
	if err := parseRequiredFields(fields, font); err != nil {
		return nil, err
	}
	if err := parseOptionalFields(fields, font); err != nil {
		return nil, err
	}

	font.Comments = make([]string, 0, font.CommentLines)
	for i := 0; i < font.CommentLines; i++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading comment line %d: %w", i+1, err)
			}
			return nil, formatErr("expected %d comment lines, got %d", font.CommentLines, i)
		}
		font.Comments = append(font.Comments, strings.TrimSuffix(scanner.Text(), "\r"))
	}

	font.Characters = make(map[rune][]string, lastPrintableASCII-firstPrintableASCII+1+len(deutschChars)+font.CodetagCount)
	return font, nil
}

// readHeaderLine returns the first non-blank line with any UTF-8 BOM removed.
func readHeaderLine(scanner *bufio.Scanner) (string, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading header: %w", err)
	}
	return "", formatErr("empty font data")
}

func parseRequiredFields(fields []string, font *Font) error {
	nums := make([]int, minHeaderFields)
	names := [minHeaderFields]string{"height", "baseline", "maxlength", "old layout", "comment lines"}
	for i := range nums {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return formatErr("invalid %s %q", names[i], fields[i])
		}
		nums[i] = v
	}
	font.Height, font.Baseline, font.MaxLength, font.OldLayout, font.CommentLines =
		nums[0], nums[1], nums[2], nums[3], nums[4]

	switch {
	case font.Height <= 0:
		return formatErr("height must be positive, got %d", font.Height)
	case font.Baseline < 1:
		return formatErr("baseline must be at least 1, got %d", font.Baseline)
	case font.Baseline > font.Height:
		return formatErr("baseline exceeds height: %d > %d", font.Baseline, font.Height)
	case font.MaxLength <= 0:
		return formatErr("maxlength must be positive, got %d", font.MaxLength)
	case font.OldLayout < -1 || font.OldLayout > 63:
		return formatErr("old layout out of range: %d", font.OldLayout)
	case font.CommentLines < 0:
		return formatErr("comment lines must be non-negative, got %d", font.CommentLines)
	}
	return nil
}

func parseOptionalFields(fields []string, font *Font) error {
	const (
		printDirectionField = 5
		fullLayoutField     = 6
		codetagCountField   = 7
	)

	if len(fields) > printDirectionField {
		if v, err := strconv.Atoi(fields[printDirectionField]); err == nil {
			if v != 0 && v != 1 {
				return formatErr("print direction must be 0 or 1, got %d", v)
			}
			font.PrintDirection = v
		}
	}
	if len(fields) > fullLayoutField {
		if v, err := strconv.Atoi(fields[fullLayoutField]); err == nil {
			if v < 0 || v > 32767 {
				return formatErr("full layout out of range: %d", v)
			}
			font.FullLayout = v
			font.FullLayoutSet = true
		}
	}
	if len(fields) > codetagCountField {
		if v, err := strconv.Atoi(fields[codetagCountField]); err == nil && v >= 0 {
			font.CodetagCount = v
		}
	}
	return nil
}

// parseRequired reads ASCII 32-126 followed by the German characters.
func parseRequired(scanner *bufio.Scanner, font *Font) error {
	codes := make([]rune, 0, lastPrintableASCII-firstPrintableASCII+1+len(deutschChars))
	for c := rune(firstPrintableASCII); c <= lastPrintableASCII; c++ {
		codes = append(codes, c)
	}
	codes = append(codes, deutschChars[:]...)

	for i, code := range codes {
		glyph, err := parseGlyph(scanner, font)
		if err != nil {
			// the space glyph is mandatory, everything after it may be truncated
			if errors.Is(err, io.ErrUnexpectedEOF) {
				if i > 0 {
					return nil
				}
				return fmt.Errorf("%w: glyph %d: %w", ErrFormat, code, err)
			}
			return fmt.Errorf("glyph %d: %w", code, err)
		}
		font.Characters[code] = glyph
	}
	return nil
}

// parseCodetags reads "CODE [comment]" headed glyphs until EOF.
func parseCodetags(scanner *bufio.Scanner, font *Font) error {
	for scanner.Scan() {
		tagLine := strings.TrimSpace(scanner.Text())
		if tagLine == "" {
			continue
		}
		tok := strings.Fields(tagLine)[0]
		code, err := strconv.ParseInt(tok, 0, 64)
		if err != nil {
			return formatErr("invalid code tag %q", tok)
		}
		glyph, err := parseGlyph(scanner, font)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				font.Warnings = append(font.Warnings, fmt.Sprintf("code tag %s truncated", tok))
				return nil
			}
			return fmt.Errorf("glyph %s: %w", tok, err)
		}
		// negative codes are reserved for translation tables
		if code < 0 || code > utf8.MaxRune {
			continue
		}
		font.Characters[rune(code)] = glyph
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading code tags: %w", err)
	}
	return nil
}

// stripTrailingRun removes the trailing run of the line's last character,
// returning the body and the run length.
func stripTrailingRun(line string) (body string, runLen int) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return "", 0
	}

	last := line[len(line)-1]
	if last < asciiThreshold {
		i := len(line) - 1
		for i >= 0 && line[i] == last {
			i--
			runLen++
		}
		return line[:i+1], runLen
	}

	r, sz := utf8.DecodeLastRuneInString(line)
	if r == utf8.RuneError && sz == 1 {
		i := len(line) - 1
		for i >= 0 && line[i] == last {
			i--
			runLen++
		}
		return line[:i+1], runLen
	}

	i := len(line)
	for i > 0 {
		rr, s := utf8.DecodeLastRuneInString(line[:i])
		if rr != r {
			break
		}
		i -= s
		runLen++
	}
	return line[:i], runLen
}

// parseGlyph reads Height rows; every row must have the same rune width.
func parseGlyph(scanner *bufio.Scanner, font *Font) ([]string, error) {
	glyph := make([]string, 0, font.Height)
	width := -1

	for row := 0; row < font.Height; row++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading row %d: %w", row+1, err)
			}
			return nil, fmt.Errorf("expected %d rows, got %d: %w", font.Height, row, io.ErrUnexpectedEOF)
		}

		body, _ := stripTrailingRun(scanner.Text())
		w := utf8.RuneCountInString(body)
		if w > font.MaxLength {
			font.Warnings = append(font.Warnings,
				fmt.Sprintf("row width %d exceeds maxlength %d", w, font.MaxLength))
		}
		if width == -1 {
			width = w
		} else if w != width {
			return nil, formatErr("inconsistent row width: row %d has %d, expected %d", row+1, w, width)
		}
		glyph = append(glyph, body)
	}
	return glyph, nil
}
