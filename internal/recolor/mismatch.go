package recolor

import (
	"fmt"
	"sort"
	"strings"

	"iconforge/internal/geometry"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// Mismatch policy names.
const (
	PolicyAnnotate = "annotate"
	PolicySkip     = "skip"
)

// MismatchError lists the unique colors that had no palette row.
type MismatchError struct {
	Colors []palette.Color
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %d unmatched color(s): %s", services.ErrPaletteMismatch, len(e.Colors), joinColors(e.Colors))
}

func (e *MismatchError) Unwrap() error { return services.ErrPaletteMismatch }

// Annotation controls the warning text frame written by the annotate policy.
type Annotation struct {
	Font string
	Size float64
	Fill palette.Color
	// Gap is the distance below the lowest artboard.
	Gap float64
}

// DefaultAnnotation returns an 18 pt frame 20 units below the artboards.
func DefaultAnnotation(font string, fill palette.Color) Annotation {
	return Annotation{Font: font, Size: 18, Fill: fill, Gap: 20}
}

// MismatchPolicy decides how a document with unmatched colors is handled.
// A policy instance accumulates state for one document only.
type MismatchPolicy interface {
	// Unmatched is the hook passed to RemapIndexedToCMYK.
	Unmatched(item scenegraph.PathItem) error
	// Colors returns the unique unmatched colors seen so far, sorted.
	Colors() []palette.Color
	// Resolve runs after the conversion. It returns the warning lines to
	// report, or an error when the document must not be exported.
	Resolve(doc scenegraph.Document) ([]string, error)
}

// NewMismatchPolicy builds the named policy.
func NewMismatchPolicy(name string, annotation Annotation) (MismatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyAnnotate:
		return &annotatePolicy{annotation: annotation, collector: newCollector()}, nil
	case PolicySkip:
		return &skipPolicy{collector: newCollector()}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "recolor", "mismatch policy",
			fmt.Sprintf("unknown policy %q", name), nil)
	}
}

// collector de-duplicates unmatched fills by their printed form.
type collector struct {
	seen map[string]palette.Color
}

func newCollector() collector {
	return collector{seen: map[string]palette.Color{}}
}

func (c collector) Unmatched(item scenegraph.PathItem) error {
	fill := item.Fill()
	c.seen[fill.String()] = fill
	return nil
}

func (c collector) Colors() []palette.Color {
	keys := make([]string, 0, len(c.seen))
	for key := range c.seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]palette.Color, 0, len(keys))
	for _, key := range keys {
		out = append(out, c.seen[key])
	}
	return out
}

type annotatePolicy struct {
	collector
	annotation Annotation
}

func (p *annotatePolicy) Resolve(doc scenegraph.Document) ([]string, error) {
	colors := p.Colors()
	if len(colors) == 0 {
		return nil, nil
	}
	message := "Unmatched colors: " + joinColors(colors)
	if _, err := Annotate(doc, message, p.annotation); err != nil {
		return nil, err
	}
	return []string{message}, nil
}

type skipPolicy struct {
	collector
}

func (p *skipPolicy) Resolve(scenegraph.Document) ([]string, error) {
	colors := p.Colors()
	if len(colors) == 0 {
		return nil, nil
	}
	return nil, &MismatchError{Colors: colors}
}

// Annotate writes message as a text frame below the lowest artboard, left
// aligned with it. A missing font is tolerated; the frame keeps its
// substitute.
func Annotate(doc scenegraph.Document, message string, annotation Annotation) (scenegraph.TextFrame, error) {
	boards := doc.Artboards()
	if len(boards) == 0 {
		return nil, services.Wrap(services.ErrValidation, "recolor", "annotate", "document has no artboards", nil)
	}
	lowest := boards[0]
	for _, board := range boards[1:] {
		if board.Bottom < lowest.Bottom {
			lowest = board
		}
	}
	anchor := geometry.Point{X: lowest.Left, Y: lowest.Bottom - annotation.Gap - annotation.Size}
	frame, err := doc.AddText(scenegraph.TextSpec{
		Content: message,
		Font:    annotation.Font,
		Size:    annotation.Size,
		Fill:    annotation.Fill,
		Anchor:  anchor,
	})
	if err != nil && frame == nil {
		return nil, services.Wrap(services.ErrExternalTool, "recolor", "annotate", "create text frame", err)
	}
	return frame, nil
}

func joinColors(colors []palette.Color) string {
	parts := make([]string, len(colors))
	for i, c := range colors {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
