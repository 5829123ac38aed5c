package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		validate    func(t *testing.T, f *Font)
		errContains string
	}{
		{
			name: "full header",
			input: `flf2a$ 8 6 14 15 2 1 24463 229
Standard FIGfont
More comments here
`,
			validate: func(t *testing.T, f *Font) {
				if f.Signature != "flf2a" || f.Hardblank != '$' {
					t.Errorf("signature/hardblank = %q/%q", f.Signature, f.Hardblank)
				}
				if f.Height != 8 || f.Baseline != 6 || f.MaxLength != 14 {
					t.Errorf("height/baseline/maxlength = %d/%d/%d", f.Height, f.Baseline, f.MaxLength)
				}
				if f.OldLayout != 15 || f.PrintDirection != 1 {
					t.Errorf("old layout/direction = %d/%d", f.OldLayout, f.PrintDirection)
				}
				if !f.FullLayoutSet || f.FullLayout != 24463 || f.CodetagCount != 229 {
					t.Errorf("full layout/codetags = %t %d/%d", f.FullLayoutSet, f.FullLayout, f.CodetagCount)
				}
				if len(f.Comments) != 2 || f.Comments[1] != "More comments here" {
					t.Errorf("Comments = %q", f.Comments)
				}
			},
		},
		{
			name:  "minimal header",
			input: "flf2a# 6 5 10 -1 1\na comment\n",
			validate: func(t *testing.T, f *Font) {
				if f.Hardblank != '#' || f.OldLayout != -1 {
					t.Errorf("hardblank/old layout = %q/%d", f.Hardblank, f.OldLayout)
				}
				if f.FullLayoutSet || f.PrintDirection != 0 {
					t.Errorf("optional fields should be unset, got %t/%d", f.FullLayoutSet, f.PrintDirection)
				}
			},
		},
		{
			name:  "byte order mark and leading blank line",
			input: "\uFEFF\nflf2a$ 2 2 5 0 0\n",
			validate: func(t *testing.T, f *Font) {
				if f.Height != 2 {
					t.Errorf("Height = %d, want 2", f.Height)
				}
			},
		},
		{
			name:  "crlf comments",
			input: "flf2a$ 2 2 5 0 1\r\nwindows\r\n",
			validate: func(t *testing.T, f *Font) {
				if f.Comments[0] != "windows" {
					t.Errorf("comment = %q", f.Comments[0])
				}
			},
		},
		{
			name:  "unicode hardblank",
			input: "flf2a§ 2 2 5 0 0\n",
			validate: func(t *testing.T, f *Font) {
				if f.Hardblank != '§' {
					t.Errorf("Hardblank = %q", f.Hardblank)
				}
			},
		},
		{name: "empty", input: "", errContains: "empty font data"},
		{name: "wrong signature", input: "tlf2a$ 2 2 5 0 0\n", errContains: "expected signature"},
		{name: "too few fields", input: "flf2a$ 2 2 5\n", errContains: "header fields"},
		{name: "non numeric height", input: "flf2a$ x 2 5 0 0\n", errContains: "invalid height"},
		{name: "zero maxlength", input: "flf2a$ 2 2 0 0 0\n", errContains: "maxlength"},
		{name: "baseline zero", input: "flf2a$ 2 0 5 0 0\n", errContains: "baseline"},
		{name: "negative comments", input: "flf2a$ 2 2 5 0 -1\n", errContains: "comment lines"},
		{name: "old layout below -1", input: "flf2a$ 2 2 5 -2 0\n", errContains: "old layout"},
		{name: "print direction 2", input: "flf2a$ 2 2 5 0 0 2\n", errContains: "print direction"},
		{name: "full layout too large", input: "flf2a$ 2 2 5 0 0 0 40000\n", errContains: "full layout"},
		{name: "comments missing", input: "flf2a$ 2 2 5 0 2\none\n", errContains: "comment lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseHeader(strings.NewReader(tt.input))
			if tt.errContains != "" {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !errors.Is(err, ErrFormat) {
					t.Errorf("error %v does not wrap ErrFormat", err)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error = %q, want it to contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}
			tt.validate(t, f)
		})
	}
}

func TestParseCompleteFont(t *testing.T) {
	f := parseTestFont(t, generateFont("flf2a$ 2 2 10 0 0", 2, ""))

	validateCharCount(t, f, 102)
	validateChar(t, f, ' ', rows("  ", 2))
	validateChar(t, f, '~', rows("X", 2))
	for _, c := range germanChars {
		validateChar(t, f, c, rows("G", 2))
	}
	if f.HasMissingGlyph() {
		t.Error("font without code tag 0 reports a missing glyph")
	}
	if len(f.Warnings) != 0 {
		t.Errorf("unexpected warnings: %q", f.Warnings)
	}
}

func TestParsePartialFont(t *testing.T) {
	data := "flf2a$ 1 1 5 0 0\n  @@\nX@@\n"
	f := parseTestFont(t, data)

	validateCharCount(t, f, 2)
	validateChar(t, f, '!', []string{"X"})
	if _, ok := f.Characters['"']; ok {
		t.Error("truncated font should stop at the last complete glyph")
	}
}

func TestParseMissingSpaceGlyph(t *testing.T) {
	_, err := Parse(strings.NewReader("flf2a$ 2 2 5 0 0\n  @\n"))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("error = %v, want ErrFormat", err)
	}
}

func TestParseInconsistentWidth(t *testing.T) {
	_, err := Parse(strings.NewReader("flf2a$ 2 2 5 0 0\n  @\n   @@\n"))
	if !errors.Is(err, ErrFormat) || !strings.Contains(err.Error(), "inconsistent row width") {
		t.Fatalf("error = %v, want inconsistent width", err)
	}
}

func TestParseMaxLengthWarning(t *testing.T) {
	data := strings.Replace(generateFont("flf2a$ 1 1 2 0 0", 1, ""), "X@@\n", "XXXX@@\n", 1)
	f := parseTestFont(t, data)

	if len(f.Warnings) != 1 || !strings.Contains(f.Warnings[0], "exceeds maxlength") {
		t.Errorf("Warnings = %q, want one maxlength warning", f.Warnings)
	}
	validateChar(t, f, '!', []string{"XXXX"})
}
