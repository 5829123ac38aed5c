// Package figpad renders text as FIGlet banners and manages the fonts an
// interactive session needs: a catalog of known fonts, a loader that
// fetches and parses each font at most once at a time, a registry of parsed
// fonts and a session controller that re-renders as the user types.
package figpad

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/ryanlewis/figpad/internal/parser"
	"github.com/ryanlewis/figpad/internal/renderer"
)

// ParseFont reads a FIGfont (FLF 2.0) from r. All parse failures wrap
// ErrBadFontFormat.
func ParseFont(r io.Reader) (*Font, error) {
	pf, err := parser.Parse(r)
	if err != nil {
		if !errors.Is(err, ErrBadFontFormat) {
			err = fmt.Errorf("%w: %w", ErrBadFontFormat, err)
		}
		return nil, err
	}
	return newFont(pf), nil
}

// ParseFontBytes parses a FIGfont held in memory.
func ParseFontBytes(data []byte) (*Font, error) {
	return ParseFont(bytes.NewReader(data))
}

// cleanFSPath validates p for use with fs.FS and rejects traversal.
func cleanFSPath(p string) (string, error) {
	if p == "" {
		return "", errors.New("path cannot be empty")
	}
	if strings.HasPrefix(p, "/") {
		return "", errors.New("absolute paths not allowed")
	}
	if strings.ContainsRune(p, '\\') {
		return "", errors.New("backslashes not allowed in fs paths")
	}
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("invalid fs path: %s", p)
	}
	clean := path.Clean(p)
	if clean == "." || strings.HasPrefix(clean, "../") {
		return "", errors.New("path traversal not allowed")
	}
	return clean, nil
}

// LoadFontFS loads and parses the font at fontPath in fsys. The font is
// named after the file without its extension.
func LoadFontFS(fsys fs.FS, fontPath string) (*Font, error) {
	if fsys == nil {
		return nil, errors.New("filesystem cannot be nil")
	}
	clean, err := cleanFSPath(fontPath)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(fsys, clean)
	if err != nil {
		return nil, fmt.Errorf("open font file: %w", err)
	}
	font, err := ParseFontBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", clean, err)
	}
	font.Name = fontName(clean)
	return font, nil
}

func fontName(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

func newFont(pf *parser.Font) *Font {
	return &Font{
		parsed:         pf,
		Layout:         Layout(renderer.SmushModeFromHeader(pf.OldLayout, pf.FullLayout, pf.FullLayoutSet)),
		Hardblank:      pf.Hardblank,
		Height:         pf.Height,
		Baseline:       pf.Baseline,
		MaxLen:         pf.MaxLength,
		OldLayout:      pf.OldLayout,
		PrintDirection: pf.PrintDirection,
		CommentLines:   pf.CommentLines,
		Comments:       pf.Comments,
	}
}

// Render lays out text with f using the font's own layout and print
// direction unless options override them.
//
// Newlines start a new block of f.Height rows; tabs become spaces. Text is
// used as given; Pipeline normalizes it to NFC first. A character the font
// does not define renders with WithUnknownRune when given, else with the
// font's missing-character glyph, else fails with ErrUnsupportedRune.
//
// Example:
//
//	font, _ := figpad.LoadFontFS(fonts.FS, "ascii_small.flf")
//	out, err := figpad.Render("Hi", font, figpad.WithWidth(60))
func Render(text string, f *Font, opts ...Option) (string, error) {
	if f == nil || f.parsed == nil {
		return "", ErrUnknownFont
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	layout := f.Layout
	if o.layout != nil {
		normalized, err := NormalizeLayout(*o.layout)
		if err != nil {
			return "", err
		}
		layout = normalized
	}
	direction := f.PrintDirection
	if o.printDirection != nil {
		direction = *o.printDirection
	}

	return renderer.Render(text, f.parsed, &renderer.Options{
		SmushMode:      int(layout),
		PrintDirection: direction,
		UnknownRune:    o.unknownRune,
		TrimWhitespace: o.trimWhitespace,
		Width:          o.width,
		Trace:          o.trace,
	})
}
