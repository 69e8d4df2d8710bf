package canvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"iconforge/internal/fileutil"
	"iconforge/internal/geometry"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// ErrClosed is returned by operations on a closed document.
var ErrClosed = errors.New("document is closed")

type artboard struct {
	name string
	rect geometry.Rect
}

// Document is an open canvas document. Top-level items are held front to
// back. Documents are not safe for concurrent use.
type Document struct {
	svc    *Service
	name   string
	path   string
	space  palette.ColorSpace
	units  string
	boards []artboard
	items  []element
	nextID int
	closed bool
}

var _ scenegraph.Document = (*Document)(nil)

func (d *Document) Name() string { return d.name }

// Path is the file the document was loaded from or saved to, if any.
func (d *Document) Path() string { return d.path }

func (d *Document) ColorSpace() palette.ColorSpace { return d.space }

func (d *Document) Units() string { return d.units }

// Artboards returns the artboard rectangles in index order.
func (d *Document) Artboards() []geometry.Rect {
	out := make([]geometry.Rect, len(d.boards))
	for i, b := range d.boards {
		out[i] = b.rect
	}
	return out
}

func (d *Document) AddArtboard(rect geometry.Rect) (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	if rect.Width() <= 0 || rect.Height() <= 0 {
		return 0, fmt.Errorf("artboard must have positive size, got %gx%g", rect.Width(), rect.Height())
	}
	d.boards = append(d.boards, artboard{name: "Artboard " + strconv.Itoa(len(d.boards)+1), rect: rect})
	return len(d.boards) - 1, nil
}

func (d *Document) RemoveArtboard(index int) error {
	if err := d.checkBoard(index); err != nil {
		return err
	}
	d.boards = append(d.boards[:index], d.boards[index+1:]...)
	return nil
}

func (d *Document) SetArtboard(index int, rect geometry.Rect) error {
	if err := d.checkBoard(index); err != nil {
		return err
	}
	if rect.Width() <= 0 || rect.Height() <= 0 {
		return fmt.Errorf("artboard must have positive size, got %gx%g", rect.Width(), rect.Height())
	}
	d.boards[index].rect = rect
	return nil
}

func (d *Document) ItemsOnArtboard(index int) ([]scenegraph.Node, error) {
	if err := d.checkBoard(index); err != nil {
		return nil, err
	}
	board := d.boards[index].rect
	var out []scenegraph.Node
	for _, item := range d.items {
		if g, ok := item.(*Group); ok && len(g.children) == 0 {
			continue
		}
		if overlaps(board, item.Bounds()) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (d *Document) ClearArtboard(index int) error {
	nodes, err := d.ItemsOnArtboard(index)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if err := d.Remove(n); err != nil {
			return err
		}
	}
	return nil
}

func overlaps(a, b geometry.Rect) bool {
	return a.Left < b.Right && b.Left < a.Right && a.Bottom < b.Top && b.Bottom < a.Top
}

// PathItems walks the tree front to back.
func (d *Document) PathItems() []scenegraph.PathItem {
	var out []scenegraph.PathItem
	var walk func([]element)
	walk = func(items []element) {
		for _, item := range items {
			switch v := item.(type) {
			case *PathItem:
				out = append(out, v)
			case *Group:
				walk(v.children)
			}
		}
	}
	walk(d.items)
	return out
}

// Group wraps top-level nodes of this document in a new group placed where
// the frontmost member was.
func (d *Document) Group(nodes []scenegraph.Node) (scenegraph.Node, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, services.Wrap(services.ErrValidation, "canvas", "group", "nothing to group", nil)
	}
	members := make(map[element]bool, len(nodes))
	for _, n := range nodes {
		e, err := d.own(n)
		if err != nil {
			return nil, err
		}
		if e.base().parent != nil {
			return nil, fmt.Errorf("group: %s is not a top-level item", n.ID())
		}
		members[e] = true
	}
	g := &Group{node: node{id: d.newID(), doc: d}}
	kept := make([]element, 0, len(d.items))
	insertAt := -1
	for _, item := range d.items {
		if members[item] {
			if insertAt < 0 {
				insertAt = len(kept)
				kept = append(kept, g)
			}
			item.base().parent = g
			g.children = append(g.children, item)
			continue
		}
		kept = append(kept, item)
	}
	d.items = kept
	return g, nil
}

// Ungroup releases a top-level group's children in its place.
func (d *Document) Ungroup(n scenegraph.Node) ([]scenegraph.Node, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	e, err := d.own(n)
	if err != nil {
		return nil, err
	}
	g, ok := e.(*Group)
	if !ok {
		return nil, fmt.Errorf("ungroup: %s is a %s, not a group", n.ID(), n.Kind())
	}
	container := d.containerOf(g)
	index := indexOf(*container, g)
	if index < 0 {
		return nil, fmt.Errorf("ungroup: %s not found in its container", g.id)
	}
	out := make([]scenegraph.Node, len(g.children))
	for i, child := range g.children {
		child.base().parent = g.parent
		out[i] = child
	}
	next := make([]element, 0, len(*container)+len(g.children)-1)
	next = append(next, (*container)[:index]...)
	next = append(next, g.children...)
	next = append(next, (*container)[index+1:]...)
	*container = next
	g.children = nil
	return out, nil
}

// Import deep-copies node from any canvas document into this one.
func (d *Document) Import(n scenegraph.Node, placement scenegraph.Placement) (scenegraph.Node, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	src, ok := n.(element)
	if !ok {
		return nil, fmt.Errorf("import: %T is not a canvas node", n)
	}
	c := src.clone(d)
	d.insert(c, placement)
	return c, nil
}

func (d *Document) Remove(n scenegraph.Node) error {
	if err := d.check(); err != nil {
		return err
	}
	e, err := d.own(n)
	if err != nil {
		return err
	}
	container := d.containerOf(e)
	index := indexOf(*container, e)
	if index < 0 {
		return fmt.Errorf("remove: %s not found", n.ID())
	}
	*container = append((*container)[:index], (*container)[index+1:]...)
	e.base().parent = nil
	e.base().doc = nil
	return nil
}

func (d *Document) AddRect(rect geometry.Rect, fill palette.Color, placement scenegraph.Placement) (scenegraph.PathItem, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	p := &PathItem{node: node{id: d.newID(), doc: d}, segs: rectSegments(rect), fill: fill, opacity: 100}
	d.insert(p, placement)
	return p, nil
}

// AddPath adds a path from page-coordinate path data at the front.
func (d *Document) AddPath(data string, fill palette.Color, opacity float64) (*PathItem, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	segs, err := parsePathData(data)
	if err != nil {
		return nil, err
	}
	p := &PathItem{node: node{id: d.newID(), doc: d}, segs: segs, fill: fill, opacity: clampOpacity(opacity)}
	d.insert(p, scenegraph.PlaceFirst)
	return p, nil
}

// AddText creates a text frame at the front. When spec.Font is set but not
// installed the frame is still returned, using the fallback face, together
// with an error wrapping services.ErrFontNotFound.
func (d *Document) AddText(spec scenegraph.TextSpec) (scenegraph.TextFrame, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if spec.Size <= 0 {
		return nil, fmt.Errorf("text size must be positive, got %g", spec.Size)
	}
	face, resolved, fontErr := d.svc.fonts.Resolve(spec.Font)
	if face == nil {
		return nil, fontErr
	}
	t := &TextFrame{
		node:     node{id: d.newID(), doc: d},
		content:  spec.Content,
		fontName: resolved,
		face:     face,
		size:     spec.Size,
		fill:     spec.Fill,
		anchor:   spec.Anchor,
	}
	d.insert(t, scenegraph.PlaceFirst)
	return t, fontErr
}

// Export writes one artboard to path in the requested format.
func (d *Document) Export(ctx context.Context, path string, opts scenegraph.ExportOptions) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.checkBoard(opts.Artboard); err != nil {
		return err
	}
	if opts.ScalePercent <= 0 {
		opts.ScalePercent = 100
	}
	board := d.boards[opts.Artboard].rect
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		switch opts.Format {
		case scenegraph.FormatSVG:
			return d.writeSVG(w, board, opts.ScalePercent)
		case scenegraph.FormatEPS:
			return d.writeEPS(w, board, opts.ScalePercent)
		case scenegraph.FormatPNG:
			return d.writePNG(w, board, opts)
		case scenegraph.FormatJPEG:
			return d.writeJPEG(w, board, opts)
		default:
			return fmt.Errorf("unsupported export format %q", opts.Format)
		}
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save writes the document back to its path.
func (d *Document) Save(_ context.Context) error {
	if err := d.check(); err != nil {
		return err
	}
	if strings.TrimSpace(d.path) == "" {
		return fmt.Errorf("save: document %q has no path", d.name)
	}
	return saveDocument(d, d.path)
}

// SaveAs writes the document to path and adopts it.
func (d *Document) SaveAs(_ context.Context, path string) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := saveDocument(d, path); err != nil {
		return err
	}
	d.path = path
	return nil
}

// Close releases the document without saving. Closing twice is a no-op.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.svc.track(-1)
	return nil
}

// Closed reports whether Close has been called.
func (d *Document) Closed() bool { return d.closed }

func (d *Document) check() error {
	if d.closed {
		return ErrClosed
	}
	return nil
}

func (d *Document) checkBoard(index int) error {
	if err := d.check(); err != nil {
		return err
	}
	if index < 0 || index >= len(d.boards) {
		return fmt.Errorf("artboard %d out of range (document has %d)", index, len(d.boards))
	}
	return nil
}

func (d *Document) newID() string {
	d.nextID++
	return "item-" + strconv.Itoa(d.nextID)
}

func (d *Document) own(n scenegraph.Node) (element, error) {
	e, ok := n.(element)
	if !ok || e.base().doc != d {
		return nil, fmt.Errorf("node %s does not belong to document %q", n.ID(), d.name)
	}
	return e, nil
}

func (d *Document) insert(e element, placement scenegraph.Placement) {
	e.base().parent = nil
	if placement == scenegraph.PlaceFirst {
		d.items = append([]element{e}, d.items...)
		return
	}
	d.items = append(d.items, e)
}

// replace swaps old for repl in old's container.
func (d *Document) replace(old, repl element) error {
	container := d.containerOf(old)
	index := indexOf(*container, old)
	if index < 0 {
		return fmt.Errorf("replace: %s not found", old.ID())
	}
	(*container)[index] = repl
	repl.base().parent = old.base().parent
	old.base().parent = nil
	old.base().doc = nil
	return nil
}

func (d *Document) containerOf(e element) *[]element {
	if parent := e.base().parent; parent != nil {
		return &parent.children
	}
	return &d.items
}

func indexOf(items []element, e element) int {
	for i, item := range items {
		if item == e {
			return i
		}
	}
	return -1
}

// offBoardNotes returns the content of top-level text frames lying entirely
// outside board, front to back. Exports clip them away, so writers that can
// carry metadata record them instead.
func (d *Document) offBoardNotes(board geometry.Rect) []string {
	var notes []string
	for _, item := range d.items {
		if t, ok := item.(*TextFrame); ok && !t.Bounds().Overlaps(board) {
			notes = append(notes, t.content)
		}
	}
	return notes
}

// paintAll visits every filled shape back to front.
func (d *Document) paintAll(fn func([]segment, palette.Color, float64)) {
	for i := len(d.items) - 1; i >= 0; i-- {
		d.items[i].paint(fn)
	}
}
