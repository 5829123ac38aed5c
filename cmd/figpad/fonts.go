package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ryanlewis/figpad"
)

func newFontsCmd(a *app) *cobra.Command {
	var load bool
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "List the fonts in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := a.newLoader()
			if err != nil {
				return err
			}
			if load {
				// failures are shown per font in the table
				if err := loader.Preload(cmd.Context(), loader.Catalog().IDs()...); err != nil {
					a.logger.Debug("preload finished with errors", "err", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), fontTable(loader, load))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&load, "load", "l", false, "load every font and show its metrics")
	return cmd
}

func fontTable(loader *figpad.Loader, loaded bool) string {
	headers := []string{"Font", "Location", "Description"}
	if loaded {
		headers = append(headers, "Height", "Glyphs", "State")
	}

	var rows [][]string
	for _, e := range loader.Catalog().Entries() {
		row := []string{string(e.ID), e.Location, e.Description}
		if loaded {
			row = append(row, fontMetrics(loader, e.ID)...)
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}

func fontMetrics(loader *figpad.Loader, id figpad.FontID) []string {
	font, ok := loader.Registry().Get(id)
	if !ok {
		state := loader.State(id).String()
		if err := loader.Registry().Err(id); err != nil {
			state = styleError.Render(iconError + " " + err.Error())
		}
		return []string{"", "", state}
	}
	return []string{
		strconv.Itoa(font.Height),
		strconv.Itoa(font.GlyphCount()),
		styleSuccess.Render(iconSuccess + " " + figpad.Ready.String()),
	}
}
