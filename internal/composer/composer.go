package composer

import (
	"context"
	"fmt"
	"log/slog"

	"iconforge/internal/geometry"
	"iconforge/internal/logging"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// Composer derives scratch documents and places artwork in them.
type Composer struct {
	engine scenegraph.Service
	logger *slog.Logger
}

// New builds a composer on top of a scene graph engine.
func New(engine scenegraph.Service, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{engine: engine, logger: logging.NewComponentLogger(logger, "composer")}
}

// DeriveEmptyDocument opens a scratch document with no content in the given
// units and color space.
func (c *Composer) DeriveEmptyDocument(ctx context.Context, units string, space palette.ColorSpace) (scenegraph.Document, error) {
	doc, err := c.engine.Create(ctx, scenegraph.DocumentSpec{Units: units, ColorSpace: space})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "composer", "derive document",
			fmt.Sprintf("create %s scratch document", space), err)
	}
	logging.WithContext(ctx, c.logger).Debug("scratch document created",
		logging.String("document", doc.Name()),
		logging.String(logging.FieldColorSpace, space.String()),
	)
	return doc, nil
}

// DeriveArtboardDocument opens a scratch document holding exactly one
// artboard shaped like sourceRect. The document is disposed when any step
// after creation fails.
func (c *Composer) DeriveArtboardDocument(ctx context.Context, sourceRect geometry.Rect, space palette.ColorSpace) (scenegraph.Document, error) {
	doc, err := c.DeriveEmptyDocument(ctx, scenegraph.UnitsPixels, space)
	if err != nil {
		return nil, err
	}
	if err := shapeArtboards(doc, sourceRect); err != nil {
		c.DisposeDocument(ctx, doc)
		return nil, err
	}
	return doc, nil
}

// shapeArtboards replaces the default artboards of doc with one matching rect.
func shapeArtboards(doc scenegraph.Document, rect geometry.Rect) error {
	defaults := len(doc.Artboards())
	if _, err := doc.AddArtboard(rect); err != nil {
		return services.Wrap(services.ErrExternalTool, "composer", "derive document", "add artboard", err)
	}
	for i := 0; i < defaults; i++ {
		if err := doc.RemoveArtboard(0); err != nil {
			return services.Wrap(services.ErrExternalTool, "composer", "derive document", "remove default artboard", err)
		}
	}
	if boards := doc.Artboards(); len(boards) != 1 || !boards[0].ApproxEqual(rect, geometry.Epsilon) {
		return services.Wrap(services.ErrExternalTool, "composer", "derive document",
			fmt.Sprintf("expected one artboard, found %d", len(boards)), nil)
	}
	return nil
}

// CloneInto deep-copies node into target at the given end of its stacking
// order.
func (c *Composer) CloneInto(node scenegraph.Node, target scenegraph.Document, placement scenegraph.Placement) (scenegraph.Node, error) {
	clone, err := target.Import(node, placement)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "composer", "clone",
			fmt.Sprintf("copy %s into %s (%s)", node.ID(), target.Name(), placement), err)
	}
	return clone, nil
}

// CloneAllInto copies nodes, given front to back, keeping their relative
// stacking order behind anything already in target.
func (c *Composer) CloneAllInto(nodes []scenegraph.Node, target scenegraph.Document) ([]scenegraph.Node, error) {
	out := make([]scenegraph.Node, 0, len(nodes))
	for _, node := range nodes {
		clone, err := c.CloneInto(node, target, scenegraph.PlaceLast)
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}

// PlaceAtOffset copies node into target and moves it to offset from the
// corner of target's artboard.
func (c *Composer) PlaceAtOffset(node scenegraph.Node, target scenegraph.Document, artboard int, offset geometry.Point, placement scenegraph.Placement) (scenegraph.Node, error) {
	boards := target.Artboards()
	if artboard < 0 || artboard >= len(boards) {
		return nil, services.Wrap(services.ErrValidation, "composer", "place",
			fmt.Sprintf("artboard %d out of range", artboard), nil)
	}
	clone, err := c.CloneInto(node, target, placement)
	if err != nil {
		return nil, err
	}
	geometry.TranslateTo(clone, boards[artboard].Corner().Add(offset))
	return clone, nil
}

// ResizeArtboardToContent sets the artboard's right edge to contentRight +
// margin and its height to fixedHeight, keeping the top-left corner.
func (c *Composer) ResizeArtboardToContent(doc scenegraph.Document, artboard int, contentRight, margin, fixedHeight float64) (geometry.Rect, error) {
	boards := doc.Artboards()
	if artboard < 0 || artboard >= len(boards) {
		return geometry.Rect{}, services.Wrap(services.ErrValidation, "composer", "resize artboard",
			fmt.Sprintf("artboard %d out of range", artboard), nil)
	}
	current := boards[artboard]
	resized := geometry.Rect{
		Left:   current.Left,
		Top:    current.Top,
		Right:  contentRight + margin,
		Bottom: current.Top - fixedHeight,
	}
	if resized.Width() <= 0 || resized.Height() <= 0 {
		return geometry.Rect{}, services.Wrap(services.ErrValidation, "composer", "resize artboard",
			fmt.Sprintf("content edge %g leaves no width", contentRight), nil)
	}
	if err := doc.SetArtboard(artboard, resized); err != nil {
		return geometry.Rect{}, services.Wrap(services.ErrExternalTool, "composer", "resize artboard", "set artboard", err)
	}
	return resized, nil
}

// PlaceInLandingZone builds a temporary zone rectangle in doc, fits node
// into it and centers it there, then removes the zone.
func (c *Composer) PlaceInLandingZone(doc scenegraph.Document, node scenegraph.Node, zone geometry.Rect) error {
	marker, err := doc.AddRect(zone, palette.NewRGB(255, 255, 255), scenegraph.PlaceLast)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "composer", "landing zone", "add zone", err)
	}
	defer func() {
		if removeErr := doc.Remove(marker); removeErr != nil {
			c.logger.Debug("landing zone removal failed", logging.Error(removeErr))
		}
	}()
	if err := geometry.PlaceInZone(node, marker.Bounds()); err != nil {
		return services.Wrap(services.ErrValidation, "composer", "landing zone", "fit artwork", err)
	}
	return nil
}

// DisposeDocument closes doc without saving. It accepts nil and only logs
// close failures, so it is safe in deferred cleanup.
func (c *Composer) DisposeDocument(ctx context.Context, doc scenegraph.Document) {
	if doc == nil {
		return
	}
	logger := logging.WithContext(ctx, c.logger)
	if err := doc.Close(); err != nil {
		logging.WarnWithContext(logger, "scratch document close failed", "dispose_failed",
			logging.String("document", doc.Name()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "close the document manually"),
			logging.String(logging.FieldImpact, "scratch document may stay open"),
		)
		return
	}
	logger.Debug("scratch document disposed", logging.String("document", doc.Name()))
}
