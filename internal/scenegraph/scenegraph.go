package scenegraph

import (
	"context"
	"fmt"
	"strings"

	"iconforge/internal/geometry"
	"iconforge/internal/palette"
)

// UnitsPixels is the only measurement unit documents use.
const UnitsPixels = "pixels"

// Placement selects where a duplicated node lands in the target's stacking
// order. First is the front of the stack, Last the back.
type Placement int

const (
	PlaceFirst Placement = iota
	PlaceLast
)

func (p Placement) String() string {
	if p == PlaceFirst {
		return "first"
	}
	return "last"
}

// Kind tags a node.
type Kind string

const (
	KindPath  Kind = "path"
	KindGroup Kind = "group"
	KindText  Kind = "text"
)

// Format is an export file format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatJPEG Format = "jpg"
	FormatEPS  Format = "eps"
)

// ParseFormat accepts the configured spelling of a format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "eps":
		return FormatEPS, nil
	default:
		return "", fmt.Errorf("unknown export format %q", value)
	}
}

// IsVector reports whether the format ignores pixel sizes.
func (f Format) IsVector() bool {
	return f == FormatSVG || f == FormatEPS
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return string(f) }

// DocumentSpec describes a new document.
type DocumentSpec struct {
	Name       string
	Units      string
	ColorSpace palette.ColorSpace
}

// ExportOptions carries the per-call export settings. ScalePercent is
// 100 * desiredWidth / sourceWidth. Exports always clip to the artboard.
type ExportOptions struct {
	Format       Format
	Artboard     int
	ScalePercent float64
	Transparent  bool
	Antialias    bool
	Quality      int
}

// Service opens and creates documents.
type Service interface {
	Open(ctx context.Context, path string) (Document, error)
	Create(ctx context.Context, spec DocumentSpec) (Document, error)
}

// Document is one open document. Close discards unsaved changes.
type Document interface {
	Name() string
	Path() string
	ColorSpace() palette.ColorSpace
	Units() string

	Artboards() []geometry.Rect
	AddArtboard(rect geometry.Rect) (int, error)
	RemoveArtboard(index int) error
	SetArtboard(index int, rect geometry.Rect) error
	// ItemsOnArtboard returns the top-level nodes whose bounds intersect the
	// artboard, front to back. It is the selection a host would make with
	// "select all on active artboard".
	ItemsOnArtboard(index int) ([]Node, error)
	// ClearArtboard removes every top-level node ItemsOnArtboard would return.
	ClearArtboard(index int) error

	// PathItems enumerates every path item in the document, front to back,
	// descending into groups. The order is stable while the document's
	// structure is unchanged.
	PathItems() []PathItem
	Group(nodes []Node) (Node, error)
	Ungroup(group Node) ([]Node, error)
	// Import deep-copies node, which may belong to any document of the same
	// engine, into this document's top level.
	Import(node Node, placement Placement) (Node, error)
	Remove(node Node) error
	AddRect(rect geometry.Rect, fill palette.Color, placement Placement) (PathItem, error)
	AddText(spec TextSpec) (TextFrame, error)

	Export(ctx context.Context, path string, opts ExportOptions) error
	Save(ctx context.Context) error
	Close() error
}

// Node is a handle to a document item.
type Node interface {
	ID() string
	Kind() Kind
	Bounds() geometry.Rect
	Translate(delta geometry.Point)
	// Scale resizes uniformly by factor, keeping the top-left corner fixed.
	Scale(factor float64)
}

// PathItem is a filled vector path.
type PathItem interface {
	Node
	Fill() palette.Color
	SetFill(c palette.Color)
	// Opacity ranges 0-100.
	Opacity() float64
	SetOpacity(opacity float64)
}

// TextSpec describes a new text frame. Anchor is the left end of the
// baseline in host coordinates.
type TextSpec struct {
	Content string
	Font    string
	Size    float64
	Fill    palette.Color
	Anchor  geometry.Point
}

// TextFrame is a live text item.
type TextFrame interface {
	Node
	Content() string
	FontName() string
	Anchor() geometry.Point
	// SetFont selects a font by name. When the font is unavailable the frame
	// keeps a substitute and the returned error wraps services.ErrFontNotFound.
	SetFont(name string) error
	// Outline replaces the frame with a group of path items and returns it.
	Outline() (Node, error)
}

// Interaction is the human boundary: one label prompt and one rebuild
// confirmation per run.
type Interaction interface {
	PromptLabel(ctx context.Context, message string) (string, error)
	Confirm(ctx context.Context, message string) (bool, error)
}
