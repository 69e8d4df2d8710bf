package testsupport

import (
	"path/filepath"
	"testing"

	"iconforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The masthead font is left unresolvable so runs exercise the fallback face,
// and a label is preset so no prompt is needed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Masthead.FontDirs = nil
	cfgVal.Logging.Format = "json"
	cfgVal.Label = "Acme"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLabel overrides the preset label. An empty label forces a prompt.
func WithLabel(label string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Label = label
	}
}

// WithVariants restricts the exported variants.
func WithVariants(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Variants = names
	}
}

// WithColorSpaces restricts the exported color spaces.
func WithColorSpaces(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.ColorSpaces = names
	}
}

// WithFormats restricts the exported formats.
func WithFormats(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Formats = names
	}
}

// WithSizes replaces the raster sizes.
func WithSizes(sizes ...int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Sizes = sizes
	}
}

// WithExpressiveSizes replaces the banner raster sizes.
func WithExpressiveSizes(sizes ...int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Expressive.Sizes = sizes
	}
}

// WithMismatchPolicy selects the CMYK mismatch policy.
func WithMismatchPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Palette.MismatchPolicy = policy
	}
}

// WithOutputDir exports into a directory under the test's base directory.
func WithOutputDir(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.OutputDir = filepath.Join(b.baseDir, name)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
