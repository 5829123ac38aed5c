package figpad

import (
	"errors"
	"fmt"

	"github.com/ryanlewis/figpad/internal/parser"
	"github.com/ryanlewis/figpad/internal/renderer"
)

var (
	// ErrUnknownFont is returned for font IDs that are not in the catalog
	ErrUnknownFont = errors.New("unknown font")

	// ErrFontFetch is wrapped by failures to retrieve a font's bytes
	ErrFontFetch = errors.New("font fetch failed")

	// ErrBadFontFormat is wrapped by failures to parse font data
	ErrBadFontFormat = parser.ErrFormat

	// ErrUnsupportedRune is returned when a rune has no glyph and no fallback
	ErrUnsupportedRune = renderer.ErrUnsupportedRune

	// ErrAlreadyLoaded is returned by Registry.Put for a font that is already Ready
	ErrAlreadyLoaded = errors.New("font already loaded")

	// ErrLayoutConflict is returned when a layout sets both kerning and smushing
	ErrLayoutConflict = errors.New("layout conflict: kerning and smushing both set")
)

// FontLoadError records why a font could not be loaded. Cause wraps
// ErrFontFetch or ErrBadFontFormat.
type FontLoadError struct {
	ID    FontID
	Cause error
}

func (e *FontLoadError) Error() string {
	return fmt.Sprintf("load font %s: %v", e.ID, e.Cause)
}

func (e *FontLoadError) Unwrap() error { return e.Cause }

// Fetch reports whether the load failed while retrieving the font bytes.
func (e *FontLoadError) Fetch() bool { return errors.Is(e.Cause, ErrFontFetch) }

// RenderError is returned by the pipeline when the engine rejects input.
type RenderError struct {
	Font   FontID
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Font != "" {
		return fmt.Sprintf("render with %s: %s: %v", e.Font, e.Reason, e.Err)
	}
	return fmt.Sprintf("render: %s: %v", e.Reason, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
