package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"iconforge/internal/config"
	"iconforge/internal/geometry"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/scenegraph/canvas"
)

func newSourceCommand(ctx *commandContext) *cobra.Command {
	sourceCmd := &cobra.Command{
		Use:   "source",
		Short: "Source document utilities",
	}
	sourceCmd.AddCommand(newSourceInitCommand(ctx))
	return sourceCmd
}

func newSourceInitCommand(ctx *commandContext) *cobra.Command {
	var name string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a sample source document with one icon artboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("%s already exists (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check source path: %w", err)
				}
			}
			if strings.TrimSpace(name) == "" {
				name = strings.TrimSuffix(filepath.Base(target), ".icon.toml")
				name = strings.TrimSuffix(name, filepath.Ext(name))
			}
			pal, err := palette.FromConfig(cfg.Palette)
			if err != nil {
				return err
			}

			engine := canvas.NewService(canvas.Options{FontDirs: cfg.Masthead.FontDirs, Logger: logger})
			doc, err := engine.CreateDocument(cmd.Context(), scenegraph.DocumentSpec{Name: name, ColorSpace: palette.RGB})
			if err != nil {
				return err
			}
			defer doc.Close()
			if err := drawSampleIcon(doc, pal, cfg.Source.ArtboardSize); err != nil {
				return err
			}
			if err := doc.SaveAs(cmd.Context(), target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample source %q to %s\n", name, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Document name, used as the export base name")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// drawSampleIcon fills the icon artboard with a violet tile and a gray
// inner square, the two colors every recolor stage touches.
func drawSampleIcon(doc *canvas.Document, pal *palette.Palette, size float64) error {
	violet, ok := pal.Role(palette.RoleViolet)
	if !ok {
		return errors.New("palette has no violet role")
	}
	gray, ok := pal.Role(palette.RoleGray)
	if !ok {
		return errors.New("palette has no gray role")
	}
	if _, err := doc.AddArtboard(geometry.ToHostRect(0, 0, size, size)); err != nil {
		return err
	}
	inset := size / 4
	if _, err := doc.AddRect(geometry.ToHostRect(inset, inset, size-2*inset, size-2*inset), violet.RGB, scenegraph.PlaceFirst); err != nil {
		return err
	}
	inner := size * 3 / 8
	_, err := doc.AddRect(geometry.ToHostRect(inner, inner, size-2*inner, size-2*inner), gray.RGB, scenegraph.PlaceFirst)
	return err
}
