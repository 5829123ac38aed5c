package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryanlewis/figpad/fonts"
	"github.com/ryanlewis/figpad/internal/flfgen"
)

func newGenCmd(a *app) *cobra.Command {
	var (
		input  string
		output string
		style  string
		fill   string
		blank  string
	)
	styles := make([]string, len(flfgen.Styles))
	for i, s := range flfgen.Styles {
		styles[i] = string(s)
	}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a FIGfont from .hex bitmaps",
		Long: `Generate a FIGfont from unifont-style .hex bitmaps (8x16 or 16x16 glyphs).

Without --input the bundled ASCII bitmaps are used. Styles: ` + strings.Join(styles, ", ") + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := flfgen.ParseStyle(style)
			if err != nil {
				return err
			}
			set, source, err := readGlyphs(input)
			if err != nil {
				return err
			}

			opts := flfgen.Options{Style: st, Fill: fill, Blank: blank, Source: source}
			if err := writeFont(cmd.OutOrStdout(), output, set, opts); err != nil {
				return err
			}
			a.logger.Info("generated font", "style", st, "glyphs", len(set), "output", outputName(output))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "source .hex `FILE` (default: the bundled ASCII bitmaps)")
	f.StringVarP(&output, "output", "o", "", "write the font to `FILE` instead of stdout")
	f.StringVar(&style, "style", string(flfgen.Filling), "glyph style: "+strings.Join(styles, ", "))
	f.StringVar(&fill, "fill", "", "characters for a set pixel in the filling style (default \"██\")")
	f.StringVar(&blank, "blank", "", "characters for an unset pixel in the filling style (default two spaces)")
	return cmd
}

// writeFont generates into path, or stdout when path is empty or "-".
func writeFont(stdout io.Writer, path string, set flfgen.GlyphSet, opts flfgen.Options) error {
	if path == "" || path == "-" {
		return flfgen.Generate(stdout, set, opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := flfgen.Generate(f, set, opts); err != nil {
		f.Close()
		return fmt.Errorf("generate: %w", err)
	}
	return f.Close()
}

func readGlyphs(path string) (flfgen.GlyphSet, string, error) {
	if path == "" {
		r, err := fonts.FS.Open(fonts.SourceHex)
		if err != nil {
			return nil, "", err
		}
		defer r.Close()
		set, err := flfgen.ParseHex(r)
		return set, fonts.SourceHex, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	set, err := flfgen.ParseHex(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return set, filepath.Base(path), nil
}

func outputName(p string) string {
	if p == "" || p == "-" {
		return "stdout"
	}
	return p
}
