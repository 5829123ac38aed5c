// Package fonts embeds the FIGfonts figpad ships with and the bitmap
// source they were generated from.
package fonts

import (
	"embed"
	"strings"
)

// FS holds the embedded .flf files at its root and ascii.hex.
//
//go:embed *.flf ascii.hex
var FS embed.FS

// Font describes one embedded font.
type Font struct {
	Name        string
	File        string
	Style       string
	Fill        string
	Blank       string
	Description string
}

// Bundled lists the embedded fonts in display order with the generator
// settings that produced them.
var Bundled = []Font{
	{Name: "ascii_small", File: "ascii_small.flf", Style: "half-ascii", Description: "two pixel rows per line in ASCII punctuation"},
	{Name: "ascii_big", File: "ascii_big.flf", Style: "filling", Fill: "##", Blank: "  ", Description: "every pixel as ##"},
	{Name: "solid_box_small", File: "solid_box_small.flf", Style: "half-block", Description: "half block elements, 8 rows"},
	{Name: "solid_box_big", File: "solid_box_big.flf", Style: "filling", Description: "full blocks, 16 rows"},
	{Name: "braille_dots", File: "braille_dots.flf", Style: "braille", Description: "braille patterns, 4 rows"},
}

// SourceHex is the bitmap file every bundled font is generated from.
const SourceHex = "ascii.hex"

// Lookup returns the bundled font called name.
func Lookup(name string) (Font, bool) {
	name = strings.TrimSuffix(name, ".flf")
	for _, f := range Bundled {
		if f.Name == name {
			return f, true
		}
	}
	return Font{}, false
}
