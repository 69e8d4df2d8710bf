package config

const (
	defaultConfigPath      = "~/.config/iconforge/config.toml"
	defaultLogDir          = "~/.local/share/iconforge/logs"
	defaultStateDir        = "~/.local/share/iconforge"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultMismatchPolicy  = MismatchAnnotate
	defaultInactiveOpacity = 100
	defaultArtboardSize    = 256
	defaultMastheadWidth   = 2400
	defaultMastheadHeight  = 256
	defaultGutter          = 32
	defaultFont            = "Graphik-Regular"
	defaultFontSize        = 178
	defaultBaselineRatio   = 0.25
	defaultTextGapRatio    = 0.375
	defaultBannerWidth     = 1024
	defaultBannerHeight    = 512
	defaultBannerFontSize  = 62
	defaultJPEGQuality     = 90
)

// Mismatch policies for colors that have no palette row during CMYK remapping.
const (
	MismatchAnnotate = "annotate"
	MismatchSkip     = "skip"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Palette: Palette{
			RGB: [][]int{
				{127, 53, 178},
				{191, 191, 191},
				{201, 0, 172},
				{50, 127, 239},
				{58, 220, 201},
				{255, 255, 255},
				{128, 128, 128},
			},
			CMYK: [][]int{
				{65, 91, 0, 0},
				{0, 0, 0, 25},
				{16, 96, 0, 0},
				{78, 47, 0, 0},
				{53, 0, 34, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 50},
			},
			Names:           []string{"violet", "gray", "magenta", "blue", "turquoise", "white", "dark gray"},
			Roles:           Roles{Violet: 0, Gray: 1, White: 5, Text: 6},
			MismatchPolicy:  defaultMismatchPolicy,
			InactiveOpacity: defaultInactiveOpacity,
		},
		Source: Source{
			ArtboardSize:   defaultArtboardSize,
			MastheadWidth:  defaultMastheadWidth,
			MastheadHeight: defaultMastheadHeight,
			Gutter:         defaultGutter,
		},
		Masthead: Masthead{
			Font:          defaultFont,
			FontDirs:      defaultFontDirs(),
			FontSize:      defaultFontSize,
			BaselineRatio: defaultBaselineRatio,
			TextGapRatio:  defaultTextGapRatio,
		},
		Expressive: Expressive{
			Width:       defaultBannerWidth,
			Height:      defaultBannerHeight,
			Background:  []int{72, 8, 111},
			LandingZone: Zone{X: 522, Y: 26, Width: 460, Height: 460},
			TextZone:    Zone{X: 62, Y: 106, Width: 420, Height: 300},
			FontSize:    defaultBannerFontSize,
			Sizes:       []int{1024, 512},
			Textless:    true,
		},
		Export: Export{
			Variants:       []string{"core", "inverse", "inactive", "expressive", "masthead"},
			ColorSpaces:    []string{"rgb", "cmyk"},
			Formats:        []string{"png", "svg", "jpg", "eps"},
			Sizes:          []int{1024, 512, 256, 128, 64, 48, 32, 24, 16},
			PNGTransparent: true,
			JPEGQuality:    defaultJPEGQuality,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultFontDirs() []string {
	return []string{
		"~/.local/share/fonts",
		"~/.fonts",
		"~/Library/Fonts",
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/Library/Fonts",
	}
}
