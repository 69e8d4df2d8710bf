package canvas

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"

	"iconforge/internal/geometry"
	"iconforge/internal/palette"
)

// writeEPS writes a Level 2 encapsulated PostScript file whose bounding box
// is the artboard. CMYK fills use setcmykcolor so the separations carry the
// palette values unchanged. PostScript has no transparency, so partial
// opacity is applied as a tint toward paper white. Text frames placed off the
// artboard, such as mismatch warnings, are listed as header comments.
func (d *Document) writeEPS(w io.Writer, board geometry.Rect, scalePercent float64) error {
	bw := bufio.NewWriter(w)
	line := func(text string) {
		bw.WriteString(text)
		bw.WriteByte('\n')
	}
	scale := scalePercent / 100
	width := board.Width() * scale
	height := board.Height() * scale

	line("%!PS-Adobe-3.0 EPSF-3.0")
	fmt.Fprintf(bw, "%%%%BoundingBox: 0 0 %d %d\n", int(math.Ceil(width)), int(math.Ceil(height)))
	fmt.Fprintf(bw, "%%%%HiResBoundingBox: 0 0 %s %s\n", formatNumber(width), formatNumber(height))
	line("%%Creator: iconforge")
	fmt.Fprintf(bw, "%%%%Title: (%s)\n", escapePS(d.name))
	fmt.Fprintf(bw, "%%%%CreationDate: (%s)\n", time.Now().UTC().Format(time.RFC3339))
	line("%%LanguageLevel: 2")
	if d.space == palette.CMYK {
		line("%%DocumentProcessColors: Cyan Magenta Yellow Black")
	}
	line("%%Pages: 1")
	for _, note := range d.offBoardNotes(board) {
		fmt.Fprintf(bw, "%%%%IconforgeNote: (%s)\n", escapePS(note))
	}
	line("%%EndComments")
	line("%%BeginProlog")
	line("/m { moveto } bind def /l { lineto } bind def /c { curveto } bind def /h { closepath } bind def")
	line("%%EndProlog")
	line("%%Page: 1 1")
	line("gsave")
	fmt.Fprintf(bw, "0 0 %s %s rectclip\n", formatNumber(width), formatNumber(height))
	fmt.Fprintf(bw, "%s %s scale\n", formatNumber(scale), formatNumber(scale))

	// Host coordinates are Y up like PostScript; only the origin moves.
	toPS := func(p geometry.Point) (string, string) {
		return formatNumber(p.X - board.Left), formatNumber(p.Y - board.Bottom)
	}
	d.paintAll(func(segs []segment, fill palette.Color, opacity float64) {
		if len(segs) == 0 || opacity <= 0 {
			return
		}
		line("newpath")
		var current geometry.Point
		for _, s := range segs {
			switch s.op {
			case opMove:
				x, y := toPS(s.pts[0])
				fmt.Fprintf(bw, "%s %s m\n", x, y)
				current = s.pts[0]
			case opLine:
				x, y := toPS(s.pts[0])
				fmt.Fprintf(bw, "%s %s l\n", x, y)
				current = s.pts[0]
			case opQuad:
				c1, c2 := quadToCubic(current, s.pts[0], s.pts[1])
				x1, y1 := toPS(c1)
				x2, y2 := toPS(c2)
				x, y := toPS(s.pts[1])
				fmt.Fprintf(bw, "%s %s %s %s %s %s c\n", x1, y1, x2, y2, x, y)
				current = s.pts[1]
			case opCubic:
				x1, y1 := toPS(s.pts[0])
				x2, y2 := toPS(s.pts[1])
				x, y := toPS(s.pts[2])
				fmt.Fprintf(bw, "%s %s %s %s %s %s c\n", x1, y1, x2, y2, x, y)
				current = s.pts[2]
			case opClose:
				line("h")
			}
		}
		line(psColor(fill, opacity))
		line("fill")
	})
	line("grestore")
	line("showpage")
	line("%%EOF")
	return bw.Flush()
}

// quadToCubic raises a quadratic Bézier to the equivalent cubic.
func quadToCubic(p0, q, p1 geometry.Point) (geometry.Point, geometry.Point) {
	c1 := geometry.Point{X: p0.X + 2.0/3.0*(q.X-p0.X), Y: p0.Y + 2.0/3.0*(q.Y-p0.Y)}
	c2 := geometry.Point{X: p1.X + 2.0/3.0*(q.X-p1.X), Y: p1.Y + 2.0/3.0*(q.Y-p1.Y)}
	return c1, c2
}

func psColor(fill palette.Color, opacity float64) string {
	t := opacity / 100
	if fill.Space == palette.CMYK {
		v := fill.Values
		return fmt.Sprintf("%s %s %s %s setcmykcolor",
			formatNumber(v[0]*t/100), formatNumber(v[1]*t/100), formatNumber(v[2]*t/100), formatNumber(v[3]*t/100))
	}
	v := fill.Values
	channel := func(c float64) string {
		return formatNumber(1 - (1-c/255)*t)
	}
	return fmt.Sprintf("%s %s %s setrgbcolor", channel(v[0]), channel(v[1]), channel(v[2]))
}

func escapePS(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			out = append(out, '\\', r)
		default:
			if r < 0x20 || r > 0x7e {
				out = append(out, '?')
				continue
			}
			out = append(out, r)
		}
	}
	return string(out)
}
