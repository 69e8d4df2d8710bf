package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePalette()
	if err := c.normalizeMasthead(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeLogging()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	if value, ok := os.LookupEnv("ICONFORGE_LABEL"); ok {
		c.Label = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("ICONFORGE_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePalette() {
	c.Palette.MismatchPolicy = strings.ToLower(strings.TrimSpace(c.Palette.MismatchPolicy))
	if c.Palette.MismatchPolicy == "" {
		c.Palette.MismatchPolicy = defaultMismatchPolicy
	}
	for i, name := range c.Palette.Names {
		c.Palette.Names[i] = strings.TrimSpace(name)
	}
}

func (c *Config) normalizeMasthead() error {
	c.Masthead.Font = strings.TrimSpace(c.Masthead.Font)
	if c.Masthead.Font == "" {
		c.Masthead.Font = defaultFont
	}
	dirs := make([]string, 0, len(c.Masthead.FontDirs))
	for _, dir := range c.Masthead.FontDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("masthead.font_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.Masthead.FontDirs = dirs
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.Variants = normalizeTokens(c.Export.Variants, nil)
	c.Export.ColorSpaces = normalizeTokens(c.Export.ColorSpaces, nil)
	c.Export.Formats = normalizeTokens(c.Export.Formats, map[string]string{"jpeg": "jpg"})
	c.Export.Sizes = normalizeSizes(c.Export.Sizes)
	c.Expressive.Sizes = normalizeSizes(c.Expressive.Sizes)
	if c.Export.JPEGQuality == 0 {
		c.Export.JPEGQuality = defaultJPEGQuality
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

// normalizeTokens lowercases, applies aliases, and removes blanks and
// duplicates while keeping the configured order.
func normalizeTokens(values []string, aliases map[string]string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := strings.ToLower(strings.TrimSpace(value))
		if alias, ok := aliases[token]; ok {
			token = alias
		}
		if token == "" {
			continue
		}
		if _, exists := seen[token]; exists {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// normalizeSizes removes duplicates and orders sizes largest first.
func normalizeSizes(values []int) []int {
	out := make([]int, 0, len(values))
	seen := make(map[int]struct{}, len(values))
	for _, value := range values {
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
