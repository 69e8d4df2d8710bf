package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"iconforge/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect or scaffold the configuration file"}
	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		path      string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{annotationNoConfig: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(path)
			if err != nil {
				return err
			}
			if !overwrite {
				switch _, err := os.Stat(target); {
				case err == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n"+
				"Set masthead.font and the palette rows before the first export.\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// initTarget resolves the --path flag, falling back to the default location.
func initTarget(flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag != "" {
		target, err := config.ExpandPath(flag)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return target, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := ctx.loaded()
			if err != nil {
				return err
			}
			encoded, err := loaded.Encode()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", loaded.describe(), encoded)
			return err
		},
	}
}
