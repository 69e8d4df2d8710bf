package palette

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// ColorSpace is the color model of a document or fill.
type ColorSpace int

const (
	RGB ColorSpace = iota
	CMYK
)

// String returns the uppercase model name used in filenames.
func (s ColorSpace) String() string {
	switch s {
	case RGB:
		return "RGB"
	case CMYK:
		return "CMYK"
	default:
		return fmt.Sprintf("ColorSpace(%d)", int(s))
	}
}

// Channels returns the number of channels in the model.
func (s ColorSpace) Channels() int {
	if s == CMYK {
		return 4
	}
	return 3
}

// ParseColorSpace accepts "rgb" or "cmyk" in any case.
func ParseColorSpace(value string) (ColorSpace, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "rgb":
		return RGB, nil
	case "cmyk":
		return CMYK, nil
	default:
		return RGB, fmt.Errorf("unknown color space %q", value)
	}
}

// Color is a fill value in one color model. RGB channels range 0-255 and
// CMYK channels 0-100. Unused trailing channels are zero.
type Color struct {
	Space  ColorSpace
	Values [4]float64
}

// NewRGB builds an RGB color.
func NewRGB(r, g, b float64) Color {
	return Color{Space: RGB, Values: [4]float64{r, g, b}}
}

// NewCMYK builds a CMYK color.
func NewCMYK(c, m, y, k float64) Color {
	return Color{Space: CMYK, Values: [4]float64{c, m, y, k}}
}

// Channels returns the meaningful channel values.
func (c Color) Channels() []float64 {
	out := make([]float64, c.Space.Channels())
	copy(out, c.Values[:])
	return out
}

// String renders the color as "RGB(127,53,178)" or "CMYK(65,91,0,0)".
func (c Color) String() string {
	parts := make([]string, 0, 4)
	for _, v := range c.Channels() {
		parts = append(parts, formatChannel(v))
	}
	return fmt.Sprintf("%s(%s)", c.Space, strings.Join(parts, ","))
}

func formatChannel(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// NRGBA converts the color to an opaque display color. CMYK values use the
// naive device conversion; there is no ICC profile involved.
func (c Color) NRGBA() color.NRGBA {
	switch c.Space {
	case CMYK:
		k := 1 - c.Values[3]/100
		return color.NRGBA{
			R: clampByte(255 * (1 - c.Values[0]/100) * k),
			G: clampByte(255 * (1 - c.Values[1]/100) * k),
			B: clampByte(255 * (1 - c.Values[2]/100) * k),
			A: 0xff,
		}
	default:
		return color.NRGBA{R: clampByte(c.Values[0]), G: clampByte(c.Values[1]), B: clampByte(c.Values[2]), A: 0xff}
	}
}

// Hex returns the display color as "#rrggbb".
func (c Color) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
