package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// OutputDir is the export root. Empty means a directory named after the
	// source icon next to the source document.
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	// StateDir holds the run history database and the output lock files.
	StateDir string `toml:"state_dir"`
}

// Roles names the palette rows that carry brand meaning.
type Roles struct {
	Violet int `toml:"violet"`
	Gray   int `toml:"gray"`
	White  int `toml:"white"`
	Text   int `toml:"text"`
}

// Palette contains the brand color table and recolor behavior.
type Palette struct {
	RGB             [][]int  `toml:"rgb"`
	CMYK            [][]int  `toml:"cmyk"`
	Names           []string `toml:"names"`
	Roles           Roles    `toml:"roles"`
	MismatchPolicy  string   `toml:"mismatch_policy"`
	InactiveOpacity float64  `toml:"inactive_opacity"`
}

// Source describes the expected layout of the source document.
type Source struct {
	ArtboardSize   float64 `toml:"artboard_size"`
	MastheadWidth  float64 `toml:"masthead_width"`
	MastheadHeight float64 `toml:"masthead_height"`
	Gutter         float64 `toml:"gutter"`
}

// Masthead contains lockup typesetting settings.
type Masthead struct {
	Font          string   `toml:"font"`
	FontDirs      []string `toml:"font_dirs"`
	FontSize      float64  `toml:"font_size"`
	BaselineRatio float64  `toml:"baseline_ratio"`
	TextGapRatio  float64  `toml:"text_gap_ratio"`
}

// Zone is a top-left-origin rectangle inside a banner.
type Zone struct {
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// Expressive contains banner composition settings.
type Expressive struct {
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
	Background  []int   `toml:"background"`
	LandingZone Zone    `toml:"landing_zone"`
	TextZone    Zone    `toml:"text_zone"`
	FontSize    float64 `toml:"font_size"`
	Sizes       []int   `toml:"sizes"`
	// Textless adds a second banner without the label.
	Textless bool `toml:"textless"`
}

// Export contains the axes of the export matrix.
type Export struct {
	Variants       []string `toml:"variants"`
	ColorSpaces    []string `toml:"color_spaces"`
	Formats        []string `toml:"formats"`
	Sizes          []int    `toml:"sizes"`
	PNGTransparent bool     `toml:"png_transparent"`
	JPEGQuality    int      `toml:"jpeg_quality"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains configuration for run metrics.
type Metrics struct {
	// Textfile is a node-exporter textfile path. Empty disables metric output.
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for iconforge.
//
// Configuration sections by subsystem:
//   - Paths: output, log, and state directories
//   - Palette: brand color table, role rows, mismatch policy
//   - Source: expected artboard layout of the source document
//   - Masthead: lockup label typesetting
//   - Expressive: banner composition
//   - Export: variants, color spaces, formats, sizes
//   - Logging: log format and level
//   - Metrics: textfile output
type Config struct {
	Paths      Paths      `toml:"paths"`
	Palette    Palette    `toml:"palette"`
	Source     Source     `toml:"source"`
	Masthead   Masthead   `toml:"masthead"`
	Expressive Expressive `toml:"expressive"`
	Export     Export     `toml:"export"`
	Logging    Logging    `toml:"logging"`
	Metrics    Metrics    `toml:"metrics"`

	// Label is the masthead label supplied through ICONFORGE_LABEL. It is
	// never read from the file.
	Label string `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("iconforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OutputRoot returns the export root for a source document.
func (c *Config) OutputRoot(sourcePath, baseName string) string {
	if c.Paths.OutputDir != "" {
		return c.Paths.OutputDir
	}
	return filepath.Join(filepath.Dir(sourcePath), baseName)
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the lock file guarding one output root.
func (c *Config) LockPath(outputRoot string) string {
	return filepath.Join(outputRoot, ".iconforge.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the resolved configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
