package canvas

import (
	"bufio"
	"fmt"
	"html"
	"io"

	"iconforge/internal/geometry"
	"iconforge/internal/palette"
)

// writeSVG serializes every shape, flattened, into an SVG whose viewBox is
// the artboard. Shapes outside the artboard are kept but clipped by the
// viewBox.
func (d *Document) writeSVG(w io.Writer, board geometry.Rect, scalePercent float64) error {
	bw := bufio.NewWriter(w)
	width := board.Width() * scalePercent / 100
	height := board.Height() * scalePercent / 100
	fmt.Fprintf(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(bw, "<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n",
		formatNumber(width), formatNumber(height), formatNumber(board.Width()), formatNumber(board.Height()))
	fmt.Fprintf(bw, "<title>%s</title>\n", html.EscapeString(d.name))
	origin := board.Corner()
	d.paintAll(func(segs []segment, fill palette.Color, opacity float64) {
		if len(segs) == 0 || opacity <= 0 {
			return
		}
		fmt.Fprintf(bw, "<path d=\"%s\" fill=\"%s\"", formatPathData(segs, origin), fill.Hex())
		if opacity < 100 {
			fmt.Fprintf(bw, " fill-opacity=\"%s\"", formatNumber(opacity/100))
		}
		fmt.Fprint(bw, "/>\n")
	})
	fmt.Fprint(bw, "</svg>\n")
	return bw.Flush()
}
