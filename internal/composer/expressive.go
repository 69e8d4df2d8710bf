package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"iconforge/internal/geometry"
	"iconforge/internal/logging"
	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// ExpressiveSpec configures the banner. Zones are in page coordinates
// relative to the banner's top-left corner.
type ExpressiveSpec struct {
	Width       float64
	Height      float64
	Background  palette.Color
	LandingZone geometry.Rect
	TextZone    geometry.Rect
	Label       string
	Font        string
	FontSize    float64
	TextFill    palette.Color
}

// BannerRect is the artboard of an expressive scratch document.
func (s ExpressiveSpec) BannerRect() geometry.Rect {
	return geometry.ToHostRect(0, 0, s.Width, s.Height)
}

// ComposeExpressive fills doc's only artboard with the background, lands a
// copy of icon in the landing zone, and sets the label in the text zone. It
// returns warnings for non-fatal problems.
func (c *Composer) ComposeExpressive(ctx context.Context, doc scenegraph.Document, icon scenegraph.Node, spec ExpressiveSpec) ([]string, error) {
	boards := doc.Artboards()
	if len(boards) != 1 {
		return nil, services.Wrap(services.ErrValidation, "composer", "expressive",
			fmt.Sprintf("banner document must have one artboard, has %d", len(boards)), nil)
	}
	board := boards[0]
	origin := geometry.Point{X: board.Left, Y: board.Top}
	if _, err := doc.AddRect(board, spec.Background, scenegraph.PlaceLast); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "composer", "expressive", "add background", err)
	}

	clone, err := c.CloneInto(icon, doc, scenegraph.PlaceFirst)
	if err != nil {
		return nil, err
	}
	if err := c.PlaceInLandingZone(doc, clone, spec.LandingZone.Translate(origin)); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(spec.Label)
	if label == "" {
		return nil, nil
	}
	var warnings []string
	zone := spec.TextZone.Translate(origin)
	frame, err := doc.AddText(scenegraph.TextSpec{
		Content: label,
		Size:    spec.FontSize,
		Fill:    spec.TextFill,
		Anchor:  geometry.Point{X: zone.Left, Y: zone.Bottom},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "composer", "expressive", "create text frame", err)
	}
	if err := frame.SetFont(spec.Font); err != nil {
		if !errors.Is(err, services.ErrFontNotFound) {
			return nil, services.Wrap(services.ErrExternalTool, "composer", "expressive", "set font", err)
		}
		warnings = append(warnings, fmt.Sprintf("font %q not installed; banner uses %s", spec.Font, frame.FontName()))
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "banner font substituted", "font_not_found",
			logging.String("font", spec.Font),
			logging.String("substitute", frame.FontName()),
			logging.String(logging.FieldErrorHint, "install the font or add its directory to masthead.font_dirs"),
			logging.String(logging.FieldImpact, "banner lettering uses a substitute face"),
		)
	}
	text, err := frame.Outline()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "composer", "expressive", "outline text", err)
	}
	bounds := text.Bounds()
	if bounds.Width() > zone.Width() || bounds.Height() > zone.Height() {
		if _, err := geometry.ScaleToFit(text, zone.Width(), zone.Height()); err != nil {
			return nil, services.Wrap(services.ErrValidation, "composer", "expressive", "fit label", err)
		}
	}
	// Left aligned, vertically centered.
	bounds = text.Bounds()
	text.Translate(geometry.Point{
		X: zone.Left - bounds.Left,
		Y: zone.Center().Y - bounds.Center().Y,
	})
	return warnings, nil
}
