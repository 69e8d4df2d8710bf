package canvas

import (
	"fmt"

	"golang.org/x/image/font/sfnt"

	"iconforge/internal/geometry"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
)

// element is implemented by every item kind stored in a document.
type element interface {
	scenegraph.Node
	base() *node
	clone(doc *Document) element
	apply(t geometry.Affine)
	// paint calls fn for every filled path to draw, back to front.
	paint(fn func(segs []segment, fill palette.Color, opacity float64))
}

type node struct {
	id     string
	doc    *Document
	parent *Group
}

func (n *node) base() *node { return n }

// ID returns the document-unique identifier.
func (n *node) ID() string { return n.id }

// PathItem is a filled path, possibly with several subpaths.
type PathItem struct {
	node
	segs    []segment
	fill    palette.Color
	opacity float64
}

var _ scenegraph.PathItem = (*PathItem)(nil)

func (p *PathItem) Kind() scenegraph.Kind { return scenegraph.KindPath }

func (p *PathItem) Bounds() geometry.Rect {
	r, _ := segmentBounds(p.segs)
	return r
}

func (p *PathItem) Translate(delta geometry.Point) {
	p.apply(geometry.Translation(delta.X, delta.Y))
}

func (p *PathItem) Scale(factor float64) {
	p.apply(geometry.ScaleAbout(p.Bounds().Corner(), factor))
}

func (p *PathItem) Fill() palette.Color { return p.fill }

func (p *PathItem) SetFill(c palette.Color) { p.fill = c }

func (p *PathItem) Opacity() float64 { return p.opacity }

func (p *PathItem) SetOpacity(o float64) { p.opacity = clampOpacity(o) }

// PathData returns the path in page coordinates.
func (p *PathItem) PathData() string { return formatPathData(p.segs, geometry.Point{}) }

func (p *PathItem) apply(t geometry.Affine) { p.segs = transformSegments(p.segs, t) }

func (p *PathItem) clone(doc *Document) element {
	c := &PathItem{node: node{id: doc.newID(), doc: doc}, fill: p.fill, opacity: p.opacity}
	c.segs = append([]segment(nil), p.segs...)
	return c
}

func (p *PathItem) paint(fn func([]segment, palette.Color, float64)) {
	fn(p.segs, p.fill, p.opacity)
}

// Group holds children front to back.
type Group struct {
	node
	children []element
}

var _ scenegraph.Node = (*Group)(nil)

func (g *Group) Kind() scenegraph.Kind { return scenegraph.KindGroup }

func (g *Group) Bounds() geometry.Rect {
	return unionBounds(g.children)
}

func (g *Group) Translate(delta geometry.Point) {
	g.apply(geometry.Translation(delta.X, delta.Y))
}

func (g *Group) Scale(factor float64) {
	g.apply(geometry.ScaleAbout(g.Bounds().Corner(), factor))
}

// Children returns the direct children front to back.
func (g *Group) Children() []scenegraph.Node {
	out := make([]scenegraph.Node, len(g.children))
	for i, child := range g.children {
		out[i] = child
	}
	return out
}

func (g *Group) apply(t geometry.Affine) {
	for _, child := range g.children {
		child.apply(t)
	}
}

func (g *Group) clone(doc *Document) element {
	c := &Group{node: node{id: doc.newID(), doc: doc}}
	for _, child := range g.children {
		cc := child.clone(doc)
		cc.base().parent = c
		c.children = append(c.children, cc)
	}
	return c
}

func (g *Group) paint(fn func([]segment, palette.Color, float64)) {
	for i := len(g.children) - 1; i >= 0; i-- {
		g.children[i].paint(fn)
	}
}

// TextFrame is live point text anchored at the left end of its baseline.
type TextFrame struct {
	node
	content  string
	fontName string
	face     *sfnt.Font
	size     float64
	fill     palette.Color
	anchor   geometry.Point
}

var _ scenegraph.TextFrame = (*TextFrame)(nil)

func (t *TextFrame) Kind() scenegraph.Kind { return scenegraph.KindText }

func (t *TextFrame) Content() string { return t.content }

func (t *TextFrame) FontName() string { return t.fontName }
func (t *TextFrame) Anchor() geometry.Point { return t.anchor }
func (t *TextFrame) Size() float64 { return t.size }
func (t *TextFrame) Fill() palette.Color { return t.fill }

func (t *TextFrame) Bounds() geometry.Rect {
	run, err := t.layout()
	if err != nil {
		return geometry.Rect{Left: t.anchor.X, Right: t.anchor.X, Top: t.anchor.Y, Bottom: t.anchor.Y}
	}
	var r geometry.Rect
	found := false
	for _, glyph := range run.glyphs {
		gb, ok := segmentBounds(glyph)
		if !ok {
			continue
		}
		if !found {
			r, found = gb, true
			continue
		}
		r = r.Union(gb)
	}
	if !found {
		return geometry.Rect{
			Left:   t.anchor.X,
			Right:  t.anchor.X + run.advance,
			Top:    t.anchor.Y + run.ascent,
			Bottom: t.anchor.Y - run.descent,
		}
	}
	return r
}

func (t *TextFrame) Translate(delta geometry.Point) {
	t.apply(geometry.Translation(delta.X, delta.Y))
}

func (t *TextFrame) Scale(factor float64) {
	t.apply(geometry.ScaleAbout(t.Bounds().Corner(), factor))
}

func (t *TextFrame) apply(tr geometry.Affine) {
	t.anchor = tr.Apply(t.anchor)
	t.size *= tr.A
}

// SetFont switches the face. A missing font keeps the fallback face and
// returns an error wrapping services.ErrFontNotFound.
func (t *TextFrame) SetFont(name string) error {
	face, resolved, err := t.doc.svc.fonts.Resolve(name)
	if face != nil {
		t.face = face
		t.fontName = resolved
	}
	return err
}

// Outline replaces the frame with a group holding one path per glyph.
func (t *TextFrame) Outline() (scenegraph.Node, error) {
	if t.doc == nil {
		return nil, fmt.Errorf("text frame is detached")
	}
	run, err := t.layout()
	if err != nil {
		return nil, err
	}
	g := &Group{node: node{id: t.doc.newID(), doc: t.doc}}
	for _, glyph := range run.glyphs {
		p := &PathItem{node: node{id: t.doc.newID(), doc: t.doc, parent: g}, segs: glyph, fill: t.fill, opacity: 100}
		g.children = append(g.children, p)
	}
	if err := t.doc.replace(t, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (t *TextFrame) layout() (glyphRun, error) {
	return layoutText(t.face, t.content, t.size, t.anchor)
}

func (t *TextFrame) clone(doc *Document) element {
	c := *t
	c.node = node{id: doc.newID(), doc: doc}
	return &c
}

func (t *TextFrame) paint(fn func([]segment, palette.Color, float64)) {
	run, err := t.layout()
	if err != nil {
		return
	}
	for i := len(run.glyphs) - 1; i >= 0; i-- {
		fn(run.glyphs[i], t.fill, 100)
	}
}

func transformSegments(segs []segment, t geometry.Affine) []segment {
	out := make([]segment, len(segs))
	for i, s := range segs {
		out[i] = s.transformed(t)
	}
	return out
}

func unionBounds(elements []element) geometry.Rect {
	var r geometry.Rect
	found := false
	for _, e := range elements {
		if g, ok := e.(*Group); ok && len(g.children) == 0 {
			continue
		}
		b := e.Bounds()
		if !found {
			r, found = b, true
			continue
		}
		r = r.Union(b)
	}
	return r
}

func clampOpacity(o float64) float64 {
	if o < 0 {
		return 0
	}
	if o > 100 {
		return 100
	}
	return o
}
