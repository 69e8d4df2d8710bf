package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"iconforge/internal/config"
	"iconforge/internal/exportmatrix"
	"iconforge/internal/scenegraph/canvas"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [source]...",
		Short: "Check the configuration and, optionally, source documents without exporting",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			loaded, _ := ctx.loaded()
			fmt.Fprintln(out, renderStatusLine("Configuration", statusOK, loaded.describe(), colorize))

			var failures []error
			dirs := []struct{ name, path string }{
				{"State directory", cfg.Paths.StateDir},
				{"Log directory", cfg.Paths.LogDir},
				{"Output directory", cfg.Paths.OutputDir},
			}
			for _, dir := range dirs {
				if dir.path == "" {
					continue
				}
				result := checkDirectoryAccess(dir.name, dir.path)
				fmt.Fprintln(out, renderStatusLine(result.Name, result.kind(), result.Detail, colorize))
				if !result.Passed {
					failures = append(failures, fmt.Errorf("%s: %s", result.Name, result.Detail))
				}
			}

			engine := canvas.NewService(canvas.Options{FontDirs: cfg.Masthead.FontDirs, Logger: logger})
			driver, err := exportmatrix.NewDriver(cfg, exportmatrix.Options{Engine: engine, Logger: logger})
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Export plan", statusError, err.Error(), colorize))
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Palette", statusOK,
				fmt.Sprintf("%d rows, mismatch policy %s", driver.Palette().Len(), cfg.Palette.MismatchPolicy), colorize))

			if _, fontName, fontErr := engine.Fonts().Resolve(cfg.Masthead.Font); fontErr != nil {
				fmt.Fprintln(out, renderStatusLine("Masthead font", statusWarn,
					fmt.Sprintf("%s not found, %s will be used", cfg.Masthead.Font, fontName), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Masthead font", statusOK, fontName, colorize))
			}

			for _, arg := range args {
				source, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				if err := validateSource(cmd, engine, driver, cfg, source, colorize); err != nil {
					failures = append(failures, err)
				}
			}
			return errors.Join(failures...)
		},
	}
}

func validateSource(cmd *cobra.Command, engine *canvas.Service, driver *exportmatrix.Driver, cfg *config.Config, source string, colorize bool) error {
	out := cmd.OutOrStdout()
	doc, err := engine.Open(cmd.Context(), source)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine(source, statusError, err.Error(), colorize))
		return fmt.Errorf("%s: %w", source, err)
	}
	defer doc.Close()

	pre, err := exportmatrix.Inspect(doc, cfg.Source)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine(source, statusError, err.Error(), colorize))
		return fmt.Errorf("%s: %w", source, err)
	}
	matrix := driver.Plan(source, doc.Name())
	msg := fmt.Sprintf("%s run, %d items selected, %d files planned", pre.Mode, len(pre.Selection), len(matrix))
	kind := statusOK
	if pre.Mode == exportmatrix.ModeRebuild {
		kind = statusWarn
		msg += "; the masthead artboard will be rebuilt"
	}
	fmt.Fprintln(out, renderStatusLine(source, kind, msg, colorize))
	return nil
}
