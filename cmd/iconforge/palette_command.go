package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"iconforge/internal/palette"
	"iconforge/internal/textutil"
)

type paletteRow struct {
	Index int       `json:"index"`
	Name  string    `json:"name,omitempty"`
	Role  string    `json:"role,omitempty"`
	RGB   []float64 `json:"rgb"`
	CMYK  []float64 `json:"cmyk"`
	Hex   string    `json:"hex"`
}

func newPaletteCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Show the brand palette and its role assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pal, err := palette.FromConfig(cfg.Palette)
			if err != nil {
				return err
			}
			rows := paletteRows(pal)
			if asJSON {
				return writeJSON(cmd, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{
					strconv.Itoa(row.Index),
					row.Name,
					textutil.Title(strings.ReplaceAll(row.Role, ",", ", ")),
					pal.Row(row.Index).RGB.String(),
					pal.Row(row.Index).CMYK.String(),
					row.Hex,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Name", "Role", "RGB", "CMYK", "Hex"},
				table,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the palette as JSON")
	return cmd
}

func paletteRows(pal *palette.Palette) []paletteRow {
	roles := make(map[int]string)
	for _, role := range []palette.Role{palette.RoleViolet, palette.RoleGray, palette.RoleWhite, palette.RoleText} {
		if idx := pal.RoleIndex(role); idx != palette.NotFound {
			if existing := roles[idx]; existing != "" {
				roles[idx] = existing + "," + string(role)
			} else {
				roles[idx] = string(role)
			}
		}
	}
	rows := make([]paletteRow, 0, pal.Len())
	for i, spec := range pal.Rows() {
		rows = append(rows, paletteRow{
			Index: i,
			Name:  spec.Name,
			Role:  roles[i],
			RGB:   spec.RGB.Channels(),
			CMYK:  spec.CMYK.Channels(),
			Hex:   spec.RGB.Hex(),
		})
	}
	return rows
}
