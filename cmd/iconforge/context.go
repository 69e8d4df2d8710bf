package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"iconforge/internal/config"
	"iconforge/internal/logging"
)

// annotationNoConfig marks commands that must run without a loadable config.
const annotationNoConfig = "iconforge/no-config"

// loadedConfig is the configuration a command runs with plus where it came from.
type loadedConfig struct {
	*config.Config
	Path string
	// FromFile is false when Path did not exist and defaults were used.
	FromFile bool
}

// describe names the configuration source for validate and config show.
func (l loadedConfig) describe() string {
	if l.FromFile {
		return l.Path
	}
	return "defaults (no file at " + l.Path + ")"
}

// commandContext lazily loads configuration and the logger once per process
// invocation so subcommands share them.
type commandContext struct {
	loaded func() (loadedConfig, error)
	logger func() (*slog.Logger, error)
}

func newCommandContext(configFlag *string) *commandContext {
	c := &commandContext{}
	c.loaded = sync.OnceValues(func() (loadedConfig, error) {
		cfg, resolved, exists, err := config.Load(strings.TrimSpace(*configFlag))
		if err != nil {
			return loadedConfig{}, err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return loadedConfig{}, err
		}
		return loadedConfig{Config: cfg, Path: resolved, FromFile: exists}, nil
	})
	c.logger = sync.OnceValues(func() (*slog.Logger, error) {
		l, err := c.loaded()
		if err != nil {
			return nil, err
		}
		return logging.NewFromConfig(l.Config)
	})
	return c
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	l, err := c.loaded()
	return l.Config, err
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) { return c.logger() }

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if _, ok := cmd.Annotations[annotationNoConfig]; ok {
			return true
		}
	}
	return false
}
