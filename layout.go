package figpad

import (
	"fmt"
	"strings"
)

// Layout is a horizontal layout bitmask using the FIGfont header bits.
//
// Bits 0-5 select smushing rules, bit 6 is kerning and bit 7 smushing.
// With neither fitting bit set, characters are laid out at full width.
// Smushing with no rule bits is universal smushing.
type Layout int

const (
	// RuleEqualChar merges equal characters (bit 0)
	RuleEqualChar Layout = 1 << iota
	// RuleUnderscore lets an underscore be replaced by a border character (bit 1)
	RuleUnderscore
	// RuleHierarchy keeps the weaker of two hierarchy classes (bit 2)
	RuleHierarchy
	// RuleOppositePair merges opposite brackets into | (bit 3)
	RuleOppositePair
	// RuleBigX merges /\ into |, \/ into Y and >< into X (bit 4)
	RuleBigX
	// RuleHardblank merges two hardblanks (bit 5)
	RuleHardblank
	// FitKerning moves characters together until they touch (bit 6)
	FitKerning
	// FitSmushing overlaps characters by one more column using the rules (bit 7)
	FitSmushing
)

// FitFullWidth lays characters out at their full width.
const FitFullWidth Layout = 0

const (
	ruleMask    = RuleEqualChar | RuleUnderscore | RuleHierarchy | RuleOppositePair | RuleBigX | RuleHardblank
	fittingMask = FitKerning | FitSmushing
)

// NormalizeLayout validates a requested layout. Kerning and smushing
// together are a conflict; bits outside the horizontal layout are rejected.
func NormalizeLayout(l Layout) (Layout, error) {
	if l&^(ruleMask|fittingMask) != 0 {
		return 0, fmt.Errorf("%w: unknown bits 0x%X", ErrLayoutConflict, int(l&^(ruleMask|fittingMask)))
	}
	if l&FitKerning != 0 && l&FitSmushing != 0 {
		return 0, ErrLayoutConflict
	}
	return l, nil
}

// FittingMode returns FitFullWidth, FitKerning or FitSmushing.
func (l Layout) FittingMode() Layout {
	switch {
	case l&FitSmushing != 0:
		return FitSmushing
	case l&FitKerning != 0:
		return FitKerning
	}
	return FitFullWidth
}

// Rules returns only the smushing rule bits.
func (l Layout) Rules() Layout { return l & ruleMask }

// HasRule reports whether rule is set. Rules only apply while smushing.
func (l Layout) HasRule(rule Layout) bool {
	return rule&ruleMask != 0 && l&rule == rule
}

var layoutNames = []struct {
	bit  Layout
	name string
}{
	{FitKerning, "FitKerning"},
	{FitSmushing, "FitSmushing"},
	{RuleEqualChar, "RuleEqualChar"},
	{RuleUnderscore, "RuleUnderscore"},
	{RuleHierarchy, "RuleHierarchy"},
	{RuleOppositePair, "RuleOppositePair"},
	{RuleBigX, "RuleBigX"},
	{RuleHardblank, "RuleHardblank"},
}

func (l Layout) String() string {
	if l == FitFullWidth {
		return "FitFullWidth"
	}
	if l&^(ruleMask|fittingMask) != 0 {
		return fmt.Sprintf("0x%02X", int(l))
	}
	var parts []string
	if l&fittingMask == 0 {
		parts = append(parts, "FitFullWidth")
	}
	for _, n := range layoutNames {
		if l&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
