package palette

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"iconforge/internal/config"
	"iconforge/internal/services"
)

// NotFound is returned by the matchers when no row qualifies.
const NotFound = -1

// Tolerance is the exclusive per-channel bound for a match.
const Tolerance = 1.0

// ColorSpec is one palette row.
type ColorSpec struct {
	Name string
	RGB  Color
	CMYK Color
}

// In returns the row's color in the given model.
func (s ColorSpec) In(space ColorSpace) Color {
	if space == CMYK {
		return s.CMYK
	}
	return s.RGB
}

// Role names a palette row with brand meaning.
type Role string

const (
	RoleViolet Role = "violet"
	RoleGray   Role = "gray"
	RoleWhite  Role = "white"
	RoleText   Role = "text"
)

// Palette is the ordered, immutable brand color table for one run.
type Palette struct {
	rows  []ColorSpec
	roles map[Role]int
}

// Build pairs rgbRows[i] with cmykRows[i]. Mismatched lengths or malformed
// rows are configuration errors.
func Build(rgbRows, cmykRows [][]float64) (*Palette, error) {
	if len(rgbRows) != len(cmykRows) {
		return nil, services.Wrap(services.ErrConfiguration, "palette", "build",
			fmt.Sprintf("%d rgb rows but %d cmyk rows", len(rgbRows), len(cmykRows)), nil)
	}
	rows := make([]ColorSpec, len(rgbRows))
	for i := range rgbRows {
		if len(rgbRows[i]) != 3 {
			return nil, services.Wrap(services.ErrConfiguration, "palette", "build",
				fmt.Sprintf("rgb row %d has %d channels", i, len(rgbRows[i])), nil)
		}
		if len(cmykRows[i]) != 4 {
			return nil, services.Wrap(services.ErrConfiguration, "palette", "build",
				fmt.Sprintf("cmyk row %d has %d channels", i, len(cmykRows[i])), nil)
		}
		rgb, cmyk := rgbRows[i], cmykRows[i]
		rows[i] = ColorSpec{
			Name: fmt.Sprintf("row %d", i),
			RGB:  NewRGB(rgb[0], rgb[1], rgb[2]),
			CMYK: NewCMYK(cmyk[0], cmyk[1], cmyk[2], cmyk[3]),
		}
	}
	return &Palette{rows: rows, roles: map[Role]int{}}, nil
}

// FromConfig builds the palette, names, and role table from configuration.
func FromConfig(cfg config.Palette) (*Palette, error) {
	p, err := Build(toFloatRows(cfg.RGB), toFloatRows(cfg.CMYK))
	if err != nil {
		return nil, err
	}
	for i, name := range cfg.Names {
		if i < len(p.rows) && name != "" {
			p.rows[i].Name = name
		}
	}
	roles := map[Role]int{
		RoleViolet: cfg.Roles.Violet,
		RoleGray:   cfg.Roles.Gray,
		RoleWhite:  cfg.Roles.White,
		RoleText:   cfg.Roles.Text,
	}
	for role, index := range roles {
		if err := p.SetRole(role, index); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func toFloatRows(rows [][]int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

// SetRole binds role to row index.
func (p *Palette) SetRole(role Role, index int) error {
	if index < 0 || index >= len(p.rows) {
		return services.Wrap(services.ErrConfiguration, "palette", "role",
			fmt.Sprintf("%s index %d outside palette of %d rows", role, index, len(p.rows)), nil)
	}
	p.roles[role] = index
	return nil
}

// Len returns the number of rows.
func (p *Palette) Len() int { return len(p.rows) }

// Row returns row i. It panics when i is out of range.
func (p *Palette) Row(i int) ColorSpec { return p.rows[i] }

// Rows returns a copy of the table.
func (p *Palette) Rows() []ColorSpec {
	out := make([]ColorSpec, len(p.rows))
	copy(out, p.rows)
	return out
}

// Role returns the row bound to role.
func (p *Palette) Role(role Role) (ColorSpec, bool) {
	index, ok := p.roles[role]
	if !ok {
		return ColorSpec{}, false
	}
	return p.rows[index], true
}

// RoleIndex returns the row index bound to role, or NotFound.
func (p *Palette) RoleIndex(role Role) int {
	if index, ok := p.roles[role]; ok {
		return index
	}
	return NotFound
}

// MatchRGB returns the first row whose RGB channels are all within
// Tolerance of c, or NotFound.
func (p *Palette) MatchRGB(c Color) int {
	return p.match(c, RGB)
}

// MatchCMYK returns the first row whose CMYK channels are all within
// Tolerance of c, or NotFound.
func (p *Palette) MatchCMYK(c Color) int {
	return p.match(c, CMYK)
}

// Match dispatches on the color's own model.
func (p *Palette) Match(c Color) int {
	return p.match(c, c.Space)
}

func (p *Palette) match(c Color, space ColorSpace) int {
	if c.Space != space {
		return NotFound
	}
	probe := c.Channels()
	for i, row := range p.rows {
		if floats.Distance(probe, row.In(space).Channels(), math.Inf(1)) < Tolerance {
			return i
		}
	}
	return NotFound
}

// Matches reports whether a and b agree within Tolerance in the same model.
func Matches(a, b Color) bool {
	if a.Space != b.Space {
		return false
	}
	return floats.Distance(a.Channels(), b.Channels(), math.Inf(1)) < Tolerance
}

// IndexAll maps every color to its palette row in one pass. The result has
// the same length and order as colors. It is only meaningful against the
// colors as they were when it was called; recoloring the items afterwards
// does not update it.
func (p *Palette) IndexAll(colors []Color) []int {
	out := make([]int, len(colors))
	for i, c := range colors {
		out[i] = p.Match(c)
	}
	return out
}
