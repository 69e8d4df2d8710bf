package config

import (
	"fmt"
	"strings"

	"iconforge/internal/services"
)

var (
	knownVariants    = []string{"core", "inverse", "inactive", "expressive", "masthead"}
	knownColorSpaces = []string{"rgb", "cmyk"}
	knownFormats     = []string{"png", "svg", "jpg", "eps"}
)

// Validate ensures the configuration is usable. Every error wraps
// services.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validatePalette(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateMasthead(); err != nil {
		return err
	}
	if err := c.validateExpressive(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}

func (c *Config) validatePalette() error {
	p := c.Palette
	if len(p.RGB) == 0 {
		return invalid("palette.rgb must contain at least one row")
	}
	if len(p.RGB) != len(p.CMYK) {
		return invalid("palette.rgb has %d rows but palette.cmyk has %d", len(p.RGB), len(p.CMYK))
	}
	for i, row := range p.RGB {
		if err := checkChannels(row, 3, 255); err != nil {
			return invalid("palette.rgb[%d]: %v", i, err)
		}
	}
	for i, row := range p.CMYK {
		if err := checkChannels(row, 4, 100); err != nil {
			return invalid("palette.cmyk[%d]: %v", i, err)
		}
	}
	if len(p.Names) != 0 && len(p.Names) != len(p.RGB) {
		return invalid("palette.names has %d entries but the palette has %d rows", len(p.Names), len(p.RGB))
	}
	roles := map[string]int{
		"violet": p.Roles.Violet,
		"gray":   p.Roles.Gray,
		"white":  p.Roles.White,
		"text":   p.Roles.Text,
	}
	for name, index := range roles {
		if index < 0 || index >= len(p.RGB) {
			return invalid("palette.roles.%s index %d is outside the palette", name, index)
		}
	}
	switch p.MismatchPolicy {
	case MismatchAnnotate, MismatchSkip:
	default:
		return invalid("palette.mismatch_policy must be %q or %q, got %q", MismatchAnnotate, MismatchSkip, p.MismatchPolicy)
	}
	if p.InactiveOpacity < 0 || p.InactiveOpacity > 100 {
		return invalid("palette.inactive_opacity must be between 0 and 100")
	}
	return nil
}

func checkChannels(row []int, want, max int) error {
	if len(row) != want {
		return fmt.Errorf("expected %d channels, got %d", want, len(row))
	}
	for _, value := range row {
		if value < 0 || value > max {
			return fmt.Errorf("channel value %d outside 0-%d", value, max)
		}
	}
	return nil
}

func (c *Config) validateSource() error {
	s := c.Source
	if s.ArtboardSize <= 0 {
		return invalid("source.artboard_size must be positive")
	}
	if s.MastheadWidth <= 0 || s.MastheadHeight <= 0 {
		return invalid("source.masthead_width and source.masthead_height must be positive")
	}
	if s.Gutter < 0 {
		return invalid("source.gutter must be >= 0")
	}
	return nil
}

func (c *Config) validateMasthead() error {
	m := c.Masthead
	if m.FontSize <= 0 {
		return invalid("masthead.font_size must be positive")
	}
	if m.BaselineRatio < 0 || m.BaselineRatio > 1 {
		return invalid("masthead.baseline_ratio must be between 0 and 1")
	}
	if m.TextGapRatio < 0 {
		return invalid("masthead.text_gap_ratio must be >= 0")
	}
	return nil
}

func (c *Config) validateExpressive() error {
	e := c.Expressive
	if e.Width <= 0 || e.Height <= 0 {
		return invalid("expressive.width and expressive.height must be positive")
	}
	if err := checkChannels(e.Background, 3, 255); err != nil {
		return invalid("expressive.background: %v", err)
	}
	for name, zone := range map[string]Zone{"landing_zone": e.LandingZone, "text_zone": e.TextZone} {
		if zone.Width <= 0 || zone.Height <= 0 {
			return invalid("expressive.%s must have positive width and height", name)
		}
		if zone.X < 0 || zone.Y < 0 || zone.X+zone.Width > e.Width || zone.Y+zone.Height > e.Height {
			return invalid("expressive.%s must lie inside the %gx%g banner", name, e.Width, e.Height)
		}
	}
	if e.FontSize <= 0 {
		return invalid("expressive.font_size must be positive")
	}
	for _, size := range e.Sizes {
		if size <= 0 {
			return invalid("expressive.sizes must be positive")
		}
	}
	return nil
}

func (c *Config) validateExport() error {
	e := c.Export
	if len(e.Variants) == 0 {
		return invalid("export.variants must include at least one variant")
	}
	if err := checkKnown("export.variants", e.Variants, knownVariants); err != nil {
		return err
	}
	if len(e.ColorSpaces) == 0 {
		return invalid("export.color_spaces must include at least one color space")
	}
	if err := checkKnown("export.color_spaces", e.ColorSpaces, knownColorSpaces); err != nil {
		return err
	}
	if len(e.Formats) == 0 {
		return invalid("export.formats must include at least one format")
	}
	if err := checkKnown("export.formats", e.Formats, knownFormats); err != nil {
		return err
	}
	for _, size := range e.Sizes {
		if size <= 0 {
			return invalid("export.sizes must be positive")
		}
	}
	if e.JPEGQuality < 1 || e.JPEGQuality > 100 {
		return invalid("export.jpeg_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return invalid("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}

func checkKnown(field string, values, known []string) error {
	for _, value := range values {
		found := false
		for _, candidate := range known {
			if value == candidate {
				found = true
				break
			}
		}
		if !found {
			return invalid("%s: unknown value %q (expected one of %s)", field, value, strings.Join(known, ", "))
		}
	}
	return nil
}
