package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"iconforge/internal/geometry"
	"iconforge/internal/scenegraph"
)

// rasterize renders the artboard at scalePercent through the SVG rendition.
// The result is transparent where nothing is painted.
func (d *Document) rasterize(board geometry.Rect, scalePercent float64) (*image.RGBA, error) {
	width := int(math.Round(board.Width() * scalePercent / 100))
	height := int(math.Round(board.Height() * scalePercent / 100))
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("raster size %dx%d is empty", width, height)
	}
	var buf bytes.Buffer
	if err := d.writeSVG(&buf, board, 100); err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(&buf)
	if err != nil {
		return nil, fmt.Errorf("parse svg rendition: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

// flatten composites img over opaque white.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.White, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}

func (d *Document) writePNG(w io.Writer, board geometry.Rect, opts scenegraph.ExportOptions) error {
	img, err := d.rasterize(board, opts.ScalePercent)
	if err != nil {
		return err
	}
	var out image.Image = img
	if !opts.Transparent {
		out = flatten(img)
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, out)
}

func (d *Document) writeJPEG(w io.Writer, board geometry.Rect, opts scenegraph.ExportOptions) error {
	img, err := d.rasterize(board, opts.ScalePercent)
	if err != nil {
		return err
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: quality})
}
