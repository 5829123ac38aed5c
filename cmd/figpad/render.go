package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ryanlewis/figpad"
)

// renderFlags are the engine options shared by render and serve.
type renderFlags struct {
	unknownRune string
	trim        bool
	fullWidth   bool
	kern        bool
	smush       bool
	rtl         bool
}

func (f *renderFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.unknownRune, "unknown-rune", "u", "", "rune to replace unsupported characters (default: the font's missing glyph)")
	fs.BoolVar(&f.trim, "trim-whitespace", false, "trim trailing whitespace from each line")
	fs.BoolVarP(&f.fullWidth, "full-width", "W", false, "use full-width mode (no kerning or smushing)")
	fs.BoolVarP(&f.kern, "kern", "k", false, "use kerning mode (characters touch but don't overlap)")
	fs.BoolVarP(&f.smush, "smush", "s", false, "use the font's smushing rules (the default)")
	fs.BoolVar(&f.rtl, "rtl", false, "render right to left")
}

// options builds render options. The trim flag wins over config only when
// it is set.
func (f *renderFlags) options(trimDefault bool) ([]figpad.Option, error) {
	var opts []figpad.Option
	if f.unknownRune != "" {
		r, err := parseUnknownRune(f.unknownRune)
		if err != nil {
			return nil, fmt.Errorf("parsing unknown rune: %w", err)
		}
		opts = append(opts, figpad.WithUnknownRune(r))
	}
	if f.trim || trimDefault {
		opts = append(opts, figpad.WithTrimWhitespace(true))
	}
	// Layout mode flags are mutually exclusive; smushing keeps the font's
	// own rules, as figlet -s does.
	switch {
	case f.fullWidth:
		opts = append(opts, figpad.WithLayout(figpad.FitFullWidth))
	case f.kern:
		opts = append(opts, figpad.WithLayout(figpad.FitKerning))
	}
	if f.rtl {
		opts = append(opts, figpad.WithPrintDirection(1))
	}
	return opts, nil
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		font  string
		width int
		flags renderFlags
	)
	cmd := &cobra.Command{
		Use:   "render [flags] <text>...",
		Short: "Render text once and print it",
		Long: `Render text once and print it.

Unknown rune formats:
  Literal:          -u '*'
  Unicode escape:   -u '\u2588'
  Unicode notation: -u 'U+2588'
  Decimal:          -u '63'
  Hexadecimal:      -u '0x3F'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(a.cfg.Trim)
			if err != nil {
				return err
			}
			loader, err := a.newLoader()
			if err != nil {
				return err
			}
			f, err := resolveFont(cmd, loader, fontOrDefault(font, a.cfg.Font))
			if err != nil {
				return err
			}
			p := figpad.NewPipeline(opts...).WithTracer(a.tracer)
			out, err := p.Render(f, strings.Join(args, " "), changedInt(cmd.Flags(), "width", width, a.cfg.Width))
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&font, "font", "f", "", fontFlagUsage)
	cmd.Flags().IntVarP(&width, "width", "w", 0, "maximum output width in columns (0 = no wrapping)")
	flags.bind(cmd.Flags())
	return cmd
}

func fontOrDefault(flag, cfg string) string {
	if flag != "" {
		return flag
	}
	return cfg
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

// parseUnknownRune parses the unknown rune flag value which can be in various formats:
// - Literal character (e.g., "*", "?")
// - Escaped Unicode: "\uXXXX", "\UXXXXXXXX"
// - Unicode notation: "U+XXXX"
// - Decimal: "63"
// - Hexadecimal: "0x3F"
func parseUnknownRune(s string) (rune, error) {
	if s == "" {
		return 0, fmt.Errorf("unknown rune cannot be empty")
	}

	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	}

	for _, parse := range []func(string) (rune, bool){
		parseEscapedUnicode,
		parseUnicodeNotation,
		parseHexadecimal,
		parseDecimal,
	} {
		if r, ok := parse(s); ok {
			return r, nil
		}
	}
	return 0, fmt.Errorf("invalid rune format: %s", s)
}

// validRune rejects values outside Unicode and UTF-16 surrogates.
func validRune(code int64) (rune, bool) {
	r := rune(code)
	if code < 0 || code > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
		return 0, false
	}
	return r, true
}

func parseHexDigits(s string) (rune, bool) {
	code, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return validRune(code)
}

func parseEscapedUnicode(s string) (rune, bool) {
	switch {
	case strings.HasPrefix(s, `\u`) && len(s) == 6:
		return parseHexDigits(s[2:])
	case strings.HasPrefix(s, `\U`) && len(s) == 10:
		return parseHexDigits(s[2:])
	}
	return 0, false
}

func parseUnicodeNotation(s string) (rune, bool) {
	if strings.HasPrefix(s, "U+") || strings.HasPrefix(s, "u+") {
		return parseHexDigits(s[2:])
	}
	return 0, false
}

func parseHexadecimal(s string) (rune, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return parseHexDigits(s[2:])
	}
	return 0, false
}

func parseDecimal(s string) (rune, bool) {
	code, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return validRune(code)
}
