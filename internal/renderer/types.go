package renderer

import (
	"errors"

	"github.com/ryanlewis/figpad/internal/debug"
)

var (
	// ErrNilFont is returned when Render is called without a font
	ErrNilFont = errors.New("font cannot be nil")
	// ErrUnsupportedRune is returned when a character has no glyph and no fallback
	ErrUnsupportedRune = errors.New("unsupported rune")
)

// Smushing mode bits, as used in FIGfont headers.
const (
	SMSmush = 128
	SMKern  = 64

	SMEqual     = 1
	SMLowline   = 2
	SMHierarchy = 4
	SMPair      = 8
	SMBigX      = 16
	SMHardblank = 32

	smRuleMask = 63
)

// DefaultWidth is used when no output width is given. It is wide enough
// that ordinary input never wraps.
const DefaultWidth = 10000

// Options controls a single render.
type Options struct {
	// SmushMode is the horizontal layout in FIGfont bits (SMSmush, SMKern, rules)
	SmushMode int
	// PrintDirection is 0 for left-to-right, 1 for right-to-left
	PrintDirection int
	// UnknownRune replaces characters the font has no glyph for
	UnknownRune *rune
	// TrimWhitespace removes trailing spaces from each output row
	TrimWhitespace bool
	// Width is the maximum output width; values <= 0 mean DefaultWidth
	Width int
	// Trace receives render events when non-nil
	Trace *debug.Session
}

// SmushModeFromHeader derives the horizontal smush mode from header values.
// FullLayout wins when present; otherwise OldLayout -1 is full width, 0 is
// kerning and 1..63 selects smushing with those rules.
func SmushModeFromHeader(oldLayout, fullLayout int, fullLayoutSet bool) int {
	if fullLayoutSet {
		return fullLayout & (SMSmush | SMKern | smRuleMask)
	}
	switch {
	case oldLayout == 0:
		return SMKern
	case oldLayout > 0:
		return SMSmush | (oldLayout & smRuleMask)
	}
	return 0
}
