package canvas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"iconforge/internal/fileutil"
	"iconforge/internal/geometry"
	"iconforge/internal/logging"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
)

// sourceFile is the on-disk layout of a document. Coordinates use the page
// convention: origin top-left, Y down.
type sourceFile struct {
	Name       string         `toml:"name"`
	Units      string         `toml:"units"`
	ColorSpace string         `toml:"color_space"`
	Artboards  []artboardFile `toml:"artboards"`
	Items      []itemFile     `toml:"items"`
}

type artboardFile struct {
	Name   string  `toml:"name,omitempty"`
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// itemFile holds one item; items are listed front to back.
type itemFile struct {
	Kind     string     `toml:"kind"`
	Path     string     `toml:"path,omitempty"`
	Fill     []float64  `toml:"fill,omitempty"`
	Opacity  *float64   `toml:"opacity,omitempty"`
	Text     string     `toml:"text,omitempty"`
	Font     string     `toml:"font,omitempty"`
	Size     float64    `toml:"size,omitempty"`
	X        float64    `toml:"x,omitempty"`
	Y        float64    `toml:"y,omitempty"`
	Children []itemFile `toml:"children,omitempty"`
}

func loadDocument(svc *Service, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var file sourceFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", filepath.Base(path), err)
	}
	space := palette.RGB
	if strings.TrimSpace(file.ColorSpace) != "" {
		if space, err = palette.ParseColorSpace(file.ColorSpace); err != nil {
			return nil, fmt.Errorf("document %s: %w", filepath.Base(path), err)
		}
	}
	units := strings.TrimSpace(file.Units)
	if units == "" {
		units = scenegraph.UnitsPixels
	}
	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc := &Document{svc: svc, name: name, path: path, space: space, units: units}
	for i, ab := range file.Artboards {
		if ab.Width <= 0 || ab.Height <= 0 {
			return nil, fmt.Errorf("document %s: artboard %d has non-positive size", name, i)
		}
		boardName := ab.Name
		if boardName == "" {
			boardName = fmt.Sprintf("Artboard %d", i+1)
		}
		doc.boards = append(doc.boards, artboard{name: boardName, rect: geometry.ToHostRect(ab.X, ab.Y, ab.Width, ab.Height)})
	}
	for i, item := range file.Items {
		e, err := decodeItem(doc, item, space)
		if err != nil {
			return nil, fmt.Errorf("document %s: item %d: %w", name, i, err)
		}
		doc.items = append(doc.items, e)
	}
	return doc, nil
}

func decodeItem(doc *Document, item itemFile, space palette.ColorSpace) (element, error) {
	switch scenegraph.Kind(strings.ToLower(strings.TrimSpace(item.Kind))) {
	case scenegraph.KindPath, "":
		segs, err := parsePathData(item.Path)
		if err != nil {
			return nil, err
		}
		fill, err := decodeFill(item.Fill, space)
		if err != nil {
			return nil, err
		}
		opacity := 100.0
		if item.Opacity != nil {
			opacity = clampOpacity(*item.Opacity)
		}
		return &PathItem{node: node{id: doc.newID(), doc: doc}, segs: segs, fill: fill, opacity: opacity}, nil
	case scenegraph.KindGroup:
		g := &Group{node: node{id: doc.newID(), doc: doc}}
		for i, child := range item.Children {
			e, err := decodeItem(doc, child, space)
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			e.base().parent = g
			g.children = append(g.children, e)
		}
		return g, nil
	case scenegraph.KindText:
		fill, err := decodeFill(item.Fill, space)
		if err != nil {
			return nil, err
		}
		face, resolved, fontErr := doc.svc.fonts.Resolve(item.Font)
		if face == nil {
			return nil, fontErr
		}
		if fontErr != nil {
			logging.WarnWithContext(doc.svc.logger, "text font substituted", "font_substituted",
				logging.String("font", item.Font),
				logging.String("substitute", resolved),
				logging.String(logging.FieldErrorHint, "install the font or add its directory to masthead.font_dirs"),
				logging.String(logging.FieldImpact, "text renders with the fallback face"),
			)
		}
		size := item.Size
		if size <= 0 {
			size = 12
		}
		return &TextFrame{
			node:     node{id: doc.newID(), doc: doc},
			content:  item.Text,
			fontName: resolved,
			face:     face,
			size:     size,
			fill:     fill,
			anchor:   geometry.Point{X: item.X, Y: -item.Y},
		}, nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", item.Kind)
	}
}

func decodeFill(values []float64, space palette.ColorSpace) (palette.Color, error) {
	switch len(values) {
	case 0:
		if space == palette.CMYK {
			return palette.NewCMYK(0, 0, 0, 100), nil
		}
		return palette.NewRGB(0, 0, 0), nil
	case 3:
		return palette.NewRGB(values[0], values[1], values[2]), nil
	case 4:
		return palette.NewCMYK(values[0], values[1], values[2], values[3]), nil
	default:
		return palette.Color{}, fmt.Errorf("fill must have 3 (rgb) or 4 (cmyk) channels, got %d", len(values))
	}
}

func saveDocument(doc *Document, path string) error {
	file := sourceFile{
		Name:       doc.name,
		Units:      doc.units,
		ColorSpace: strings.ToLower(doc.space.String()),
	}
	for _, b := range doc.boards {
		file.Artboards = append(file.Artboards, artboardFile{
			Name:   b.name,
			X:      b.rect.Left,
			Y:      zeroSafe(-b.rect.Top),
			Width:  b.rect.Width(),
			Height: b.rect.Height(),
		})
	}
	for _, item := range doc.items {
		file.Items = append(file.Items, encodeItem(item))
	}
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func encodeItem(e element) itemFile {
	switch v := e.(type) {
	case *PathItem:
		opacity := v.opacity
		return itemFile{
			Kind:    string(scenegraph.KindPath),
			Path:    v.PathData(),
			Fill:    v.fill.Channels(),
			Opacity: &opacity,
		}
	case *Group:
		out := itemFile{Kind: string(scenegraph.KindGroup)}
		for _, child := range v.children {
			out.Children = append(out.Children, encodeItem(child))
		}
		return out
	case *TextFrame:
		return itemFile{
			Kind: string(scenegraph.KindText),
			Text: v.content,
			Font: v.fontName,
			Size: v.size,
			Fill: v.fill.Channels(),
			X:    v.anchor.X,
			Y:    zeroSafe(-v.anchor.Y),
		}
	default:
		return itemFile{}
	}
}

func zeroSafe(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
