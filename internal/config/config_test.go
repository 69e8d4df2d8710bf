package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"iconforge/internal/config"
	"iconforge/internal/services"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iconforge.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ICONFORGE_OUTPUT_DIR", "")

	cfg, resolved, exists, err := config.Load(filepath.Join(home, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists to be false")
	}
	if resolved != filepath.Join(home, "missing.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.StateDir != filepath.Join(home, ".local/share/iconforge") {
		t.Fatalf("unexpected state dir %q", cfg.Paths.StateDir)
	}
	if cfg.Palette.MismatchPolicy != config.MismatchAnnotate {
		t.Fatalf("expected annotate policy, got %q", cfg.Palette.MismatchPolicy)
	}
	if len(cfg.Palette.RGB) != 7 || len(cfg.Palette.CMYK) != 7 {
		t.Fatalf("expected 7 palette rows, got %d/%d", len(cfg.Palette.RGB), len(cfg.Palette.CMYK))
	}
	if cfg.Source.ArtboardSize != 256 || cfg.Source.MastheadWidth != 2400 {
		t.Fatalf("unexpected source geometry %+v", cfg.Source)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("ICONFORGE_OUTPUT_DIR", "")
	path := writeConfig(t, `
[paths]
output_dir = "/tmp/icons-out"

[palette]
mismatch_policy = "SKIP"

[export]
variants = ["Core", "inverse", "core"]
formats = ["JPEG", "png"]
sizes = [16, 1024, 64, 16]
`)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing file at %q, got %q (%v)", path, resolved, exists)
	}
	if cfg.Paths.OutputDir != "/tmp/icons-out" {
		t.Fatalf("unexpected output dir %q", cfg.Paths.OutputDir)
	}
	if cfg.Palette.MismatchPolicy != config.MismatchSkip {
		t.Fatalf("expected skip policy, got %q", cfg.Palette.MismatchPolicy)
	}
	if diff := cmp.Diff([]string{"core", "inverse"}, cfg.Export.Variants); diff != "" {
		t.Fatalf("variants mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"jpg", "png"}, cfg.Export.Formats); diff != "" {
		t.Fatalf("formats mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1024, 64, 16}, cfg.Export.Sizes); diff != "" {
		t.Fatalf("sizes mismatch (-want +got):\n%s", diff)
	}
	// Untouched sections keep defaults.
	if cfg.Masthead.Font != "Graphik-Regular" {
		t.Fatalf("unexpected font %q", cfg.Masthead.Font)
	}
}

func TestEnvOverridesOutputDirAndLabel(t *testing.T) {
	path := writeConfig(t, `
[paths]
output_dir = "/tmp/from-file"
`)
	t.Setenv("ICONFORGE_OUTPUT_DIR", "/tmp/from-env")
	t.Setenv("ICONFORGE_LABEL", "  Analytics  ")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != "/tmp/from-env" {
		t.Fatalf("expected env output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Label != "Analytics" {
		t.Fatalf("expected trimmed label, got %q", cfg.Label)
	}
}

func TestPaletteLengthMismatchIsConfigError(t *testing.T) {
	path := writeConfig(t, `
[palette]
rgb = [[127, 53, 178], [255, 255, 255]]
cmyk = [[65, 91, 0, 0]]
names = []
[palette.roles]
violet = 0
gray = 0
white = 0
text = 0
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for mismatched palette tables")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if !strings.Contains(err.Error(), "palette.rgb has 2 rows but palette.cmyk has 1") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown format", func(c *config.Config) { c.Export.Formats = []string{"tiff"} }, "export.formats"},
		{"unknown policy", func(c *config.Config) { c.Palette.MismatchPolicy = "ignore" }, "palette.mismatch_policy"},
		{"role out of range", func(c *config.Config) { c.Palette.Roles.White = 42 }, "palette.roles.white"},
		{"rgb channel range", func(c *config.Config) { c.Palette.RGB[0] = []int{300, 0, 0} }, "palette.rgb[0]"},
		{"cmyk channel count", func(c *config.Config) { c.Palette.CMYK[1] = []int{1, 2, 3} }, "palette.cmyk[1]"},
		{"zone outside banner", func(c *config.Config) { c.Expressive.LandingZone.X = 900 }, "expressive.landing_zone"},
		{"jpeg quality", func(c *config.Config) { c.Export.JPEGQuality = 0 }, "export.jpeg_quality"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestCreateSampleRoundTripsToDefaults(t *testing.T) {
	t.Setenv("ICONFORGE_OUTPUT_DIR", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if diff := cmp.Diff(def.Palette.RGB, cfg.Palette.RGB); diff != "" {
		t.Fatalf("sample rgb differs from defaults:\n%s", diff)
	}
	if diff := cmp.Diff(def.Palette.CMYK, cfg.Palette.CMYK); diff != "" {
		t.Fatalf("sample cmyk differs from defaults:\n%s", diff)
	}
	if diff := cmp.Diff(def.Expressive.LandingZone, cfg.Expressive.LandingZone); diff != "" {
		t.Fatalf("sample landing zone differs from defaults:\n%s", diff)
	}
	if cfg.Expressive.Textless != def.Expressive.Textless {
		t.Fatalf("sample textless = %v, defaults %v", cfg.Expressive.Textless, def.Expressive.Textless)
	}
	if diff := cmp.Diff(def.Export.Variants, cfg.Export.Variants); diff != "" {
		t.Fatalf("sample variants differ from defaults:\n%s", diff)
	}
	if cfg.Palette.Roles != def.Palette.Roles {
		t.Fatalf("sample roles differ: %+v vs %+v", cfg.Palette.Roles, def.Palette.Roles)
	}
}

func TestEncodeIncludesSections(t *testing.T) {
	cfg := config.Default()
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, section := range []string{"[paths]", "[palette]", "[export]", "mismatch_policy"} {
		if !strings.Contains(out, section) {
			t.Fatalf("expected %q in encoded config:\n%s", section, out)
		}
	}
}
