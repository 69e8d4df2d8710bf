package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Brand fills used by generated sources.
var (
	Violet = [3]int{127, 53, 178}
	Gray   = [3]int{191, 191, 191}
)

// SourceOption customizes a generated source document.
type SourceOption func(*sourceBuilder)

type sourceBuilder struct {
	name     string
	size     float64
	masthead bool
	artwork  bool
	extra    [][3]int
}

// WithSourceName sets the document name, which becomes the export base name.
func WithSourceName(name string) SourceOption {
	return func(b *sourceBuilder) { b.name = name }
}

// WithArtboardSize overrides the 256 unit icon artboard.
func WithArtboardSize(size float64) SourceOption {
	return func(b *sourceBuilder) { b.size = size }
}

// WithMastheadArtboard adds a previously exported masthead artboard holding
// stale artwork, which makes the next run a rebuild.
func WithMastheadArtboard() SourceOption {
	return func(b *sourceBuilder) { b.masthead = true }
}

// WithoutArtwork leaves the icon artboard empty.
func WithoutArtwork() SourceOption {
	return func(b *sourceBuilder) { b.artwork = false }
}

// WithExtraFill adds a small square in the given RGB fill at the back of the
// icon, typically a color with no palette row.
func WithExtraFill(rgb [3]int) SourceOption {
	return func(b *sourceBuilder) { b.extra = append(b.extra, rgb) }
}

// WriteSource writes a source document into dir and returns its path. The
// default icon is a violet square 64..192 with a gray square 96..160 in
// front of it.
func WriteSource(t testing.TB, dir string, opts ...SourceOption) string {
	t.Helper()

	b := &sourceBuilder{name: "Glyph", size: 256, artwork: true}
	for _, opt := range opts {
		opt(b)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "name = %q\ncolor_space = \"rgb\"\n\n", b.name)
	fmt.Fprintf(&sb, "[[artboards]]\nx = 0\ny = 0\nwidth = %g\nheight = %g\n\n", b.size, b.size)
	if b.masthead {
		fmt.Fprintf(&sb, "[[artboards]]\nx = %g\ny = 0\nwidth = 1200\nheight = 256\n\n", b.size+32)
	}
	if b.artwork {
		writePath(&sb, square(96, 96, 64), Gray)
		writePath(&sb, square(64, 64, 128), Violet)
		for i, rgb := range b.extra {
			writePath(&sb, square(8+float64(i)*24, 8, 16), rgb)
		}
	}
	if b.masthead {
		writePath(&sb, square(b.size+64, 100, 100), Violet)
	}

	path := filepath.Join(dir, strings.ToLower(b.name)+".icon.toml")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write source %s: %v", path, err)
	}
	return path
}

func square(x, y, size float64) string {
	return fmt.Sprintf("M %g %g L %g %g L %g %g L %g %g Z", x, y, x+size, y, x+size, y+size, x, y+size)
}

func writePath(sb *strings.Builder, data string, rgb [3]int) {
	fmt.Fprintf(sb, "[[items]]\nkind = \"path\"\npath = %q\nfill = [%d, %d, %d]\n\n", data, rgb[0], rgb[1], rgb[2])
}
