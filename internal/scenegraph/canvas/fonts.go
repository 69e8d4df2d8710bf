package canvas

import (
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"iconforge/internal/geometry"
	"iconforge/internal/services"
)

// FallbackFontName is the face used when a requested font is missing.
const FallbackFontName = "GoRegular"

// FontBook resolves font names to parsed OpenType fonts from a list of
// directories. It is safe for concurrent use.
type FontBook struct {
	dirs []string

	mu       sync.Mutex
	cache    map[string]*sfnt.Font
	files    []string
	scanned  bool
	fallback *sfnt.Font
}

// NewFontBook returns a book that searches dirs recursively.
func NewFontBook(dirs []string) *FontBook {
	return &FontBook{dirs: dirs, cache: make(map[string]*sfnt.Font)}
}

// Resolve returns the font registered under name. When it cannot be found
// the fallback face is returned together with an error wrapping
// services.ErrFontNotFound.
func (b *FontBook) Resolve(name string) (*sfnt.Font, string, error) {
	key := normalizeFontName(name)
	b.mu.Lock()
	defer b.mu.Unlock()

	if key == "" || key == normalizeFontName(FallbackFontName) {
		f, err := b.fallbackLocked()
		return f, FallbackFontName, err
	}
	if f, ok := b.cache[key]; ok {
		return f, name, nil
	}
	b.scanLocked()

	// File names usually carry the PostScript name; try them before parsing.
	for _, path := range b.files {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if normalizeFontName(base) != key {
			continue
		}
		if f, err := parseFontFile(path); err == nil {
			b.cache[key] = f
			return f, name, nil
		}
	}
	var buf sfnt.Buffer
	for _, path := range b.files {
		f, err := parseFontFile(path)
		if err != nil {
			continue
		}
		for _, id := range []sfnt.NameID{sfnt.NameIDPostScript, sfnt.NameIDFull} {
			value, err := f.Name(&buf, id)
			if err == nil && normalizeFontName(value) == key {
				b.cache[key] = f
				return f, name, nil
			}
		}
	}

	f, err := b.fallbackLocked()
	if err != nil {
		return nil, "", err
	}
	return f, FallbackFontName, services.Wrap(services.ErrFontNotFound, "canvas", "resolve font",
		fmt.Sprintf("%q not installed, using %s", name, FallbackFontName), nil)
}

func (b *FontBook) fallbackLocked() (*sfnt.Font, error) {
	if b.fallback != nil {
		return b.fallback, nil
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse fallback font: %w", err)
	}
	b.fallback = f
	return f, nil
}

func (b *FontBook) scanLocked() {
	if b.scanned {
		return
	}
	b.scanned = true
	for _, dir := range b.dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf":
				b.files = append(b.files, path)
			}
			return nil
		})
	}
}

func parseFontFile(path string) (*sfnt.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

func normalizeFontName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == ' ' || r == '-' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// glyphRun is laid-out text: one segment list per glyph with ink, in host
// coordinates, plus the advance width.
type glyphRun struct {
	glyphs  [][]segment
	advance float64
	ascent  float64
	descent float64
}

// layoutText shapes content left to right from anchor, the left end of the
// baseline. Kerning is applied when the font has a kern table.
func layoutText(f *sfnt.Font, content string, size float64, anchor geometry.Point) (glyphRun, error) {
	var run glyphRun
	if size <= 0 {
		return run, fmt.Errorf("font size must be positive")
	}
	ppem := fixed.Int26_6(math.Round(size * 64))

	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return run, fmt.Errorf("open font face: %w", err)
	}
	metrics := face.Metrics()
	_ = face.Close()
	run.ascent = fixedToFloat(metrics.Ascent)
	run.descent = fixedToFloat(metrics.Descent)

	var (
		buf  sfnt.Buffer
		pen  fixed.Int26_6
		prev sfnt.GlyphIndex
	)
	for i, r := range content {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			return run, fmt.Errorf("glyph index for %q: %w", r, err)
		}
		if i > 0 && prev != 0 && idx != 0 {
			if kern, err := f.Kern(&buf, prev, idx, ppem, font.HintingNone); err == nil {
				pen += kern
			}
		}
		raw, err := f.LoadGlyph(&buf, idx, ppem, nil)
		if err != nil {
			return run, fmt.Errorf("load glyph %q: %w", r, err)
		}
		origin := geometry.Point{X: anchor.X + fixedToFloat(pen), Y: anchor.Y}
		if segs := convertGlyph(raw, origin); len(segs) > 0 {
			run.glyphs = append(run.glyphs, segs)
		}
		advance, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return run, fmt.Errorf("glyph advance %q: %w", r, err)
		}
		pen += advance
		prev = idx
	}
	run.advance = fixedToFloat(pen)
	return run, nil
}

// convertGlyph copies sfnt segments, which are Y-down and relative to the
// glyph origin, into host coordinates. Every contour is closed explicitly.
func convertGlyph(raw sfnt.Segments, origin geometry.Point) []segment {
	out := make([]segment, 0, len(raw)+4)
	at := func(p fixed.Point26_6) geometry.Point {
		return geometry.Point{X: origin.X + fixedToFloat(p.X), Y: origin.Y - fixedToFloat(p.Y)}
	}
	open := false
	for _, s := range raw {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				out = append(out, segment{op: opClose})
			}
			out = append(out, segment{op: opMove, pts: [3]geometry.Point{at(s.Args[0])}})
			open = true
		case sfnt.SegmentOpLineTo:
			out = append(out, segment{op: opLine, pts: [3]geometry.Point{at(s.Args[0])}})
		case sfnt.SegmentOpQuadTo:
			out = append(out, segment{op: opQuad, pts: [3]geometry.Point{at(s.Args[0]), at(s.Args[1])}})
		case sfnt.SegmentOpCubeTo:
			out = append(out, segment{op: opCubic, pts: [3]geometry.Point{at(s.Args[0]), at(s.Args[1]), at(s.Args[2])}})
		}
	}
	if open {
		out = append(out, segment{op: opClose})
	}
	return out
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
