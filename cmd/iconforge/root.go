package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:   "iconforge",
		Short: "Derive and export brand icon variants",
		Long: "iconforge turns one master icon source into the full matrix of brand variants\n" +
			"(Core, Inverse, Inactive, Expressive, Masthead) in RGB and CMYK, written as\n" +
			"PNG, SVG, JPG and EPS files under a per-source output folder.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Load configuration up front so a broken file fails before any work starts.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.loaded()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	for _, sub := range []*cobra.Command{
		newExportCommand(ctx),
		newValidateCommand(ctx),
		newPaletteCommand(ctx),
		newHistoryCommand(ctx),
		newConfigCommand(ctx),
		newSourceCommand(ctx),
	} {
		root.AddCommand(sub)
	}
	return root
}
