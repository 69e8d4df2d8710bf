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

// MastheadSpec configures the icon-plus-label lockup.
type MastheadSpec struct {
	Label    string
	Font     string
	FontSize float64
	Fill     palette.Color
	// BaselineRatio and TextGapRatio are fractions of the icon artboard width.
	BaselineRatio float64
	TextGapRatio  float64
	Height        float64
}

// Masthead is the result of composing the lockup on the source document.
type Masthead struct {
	Icon       scenegraph.Node
	Text       scenegraph.Node
	Artboard   geometry.Rect
	IconOffset geometry.Point
	TextOffset geometry.Point
	// Warnings are non-fatal problems such as a substituted font.
	Warnings []string
}

// ComposeMasthead lays out the lockup on artboard mast of doc: a copy of
// icon at its offset from artboard iconBoard, then the outlined label to its
// right. The masthead artboard is resized to frame both.
func (c *Composer) ComposeMasthead(ctx context.Context, doc scenegraph.Document, icon scenegraph.Node, iconBoard, mast int, spec MastheadSpec) (Masthead, error) {
	var out Masthead
	label := strings.TrimSpace(spec.Label)
	if label == "" {
		return out, services.Wrap(services.ErrValidation, "composer", "masthead", "label is empty", nil)
	}
	boards := doc.Artboards()
	if iconBoard < 0 || iconBoard >= len(boards) || mast < 0 || mast >= len(boards) {
		return out, services.Wrap(services.ErrValidation, "composer", "masthead",
			fmt.Sprintf("artboards %d and %d required, document has %d", iconBoard, mast, len(boards)), nil)
	}
	a0, a1 := boards[iconBoard], boards[mast]
	logger := logging.WithContext(ctx, c.logger)

	out.IconOffset = geometry.Offset(icon.Bounds().Corner(), a0.Corner())
	mastIcon, err := c.PlaceAtOffset(icon, doc, mast, out.IconOffset, scenegraph.PlaceLast)
	if err != nil {
		return out, err
	}
	out.Icon = mastIcon

	baseline := a1.Bottom + spec.BaselineRatio*a0.Width()
	frame, err := doc.AddText(scenegraph.TextSpec{
		Content: label,
		Size:    spec.FontSize,
		Fill:    spec.Fill,
		Anchor:  geometry.Point{X: a1.Left, Y: baseline},
	})
	if err != nil {
		return out, services.Wrap(services.ErrExternalTool, "composer", "masthead", "create text frame", err)
	}
	if err := frame.SetFont(spec.Font); err != nil {
		if !errors.Is(err, services.ErrFontNotFound) {
			return out, services.Wrap(services.ErrExternalTool, "composer", "masthead", "set font", err)
		}
		warning := fmt.Sprintf("font %q not installed; masthead uses %s", spec.Font, frame.FontName())
		out.Warnings = append(out.Warnings, warning)
		logging.WarnWithContext(logger, "masthead font substituted", "font_not_found",
			logging.String("font", spec.Font),
			logging.String("substitute", frame.FontName()),
			logging.String(logging.FieldErrorHint, "install the font or add its directory to masthead.font_dirs"),
			logging.String(logging.FieldImpact, "masthead lettering uses a substitute face"),
		)
	}

	text, err := frame.Outline()
	if err != nil {
		return out, services.Wrap(services.ErrExternalTool, "composer", "masthead", "outline text", err)
	}
	leftEdge := mastIcon.Bounds().Right + spec.TextGapRatio*a0.Width()
	text.Translate(geometry.Point{X: leftEdge - text.Bounds().Left})
	out.Text = text

	leftMargin := mastIcon.Bounds().Left - a1.Left
	resized, err := c.ResizeArtboardToContent(doc, mast, text.Bounds().Right, leftMargin, spec.Height)
	if err != nil {
		return out, err
	}
	out.Artboard = resized
	out.TextOffset = geometry.Offset(text.Bounds().Corner(), resized.Corner())

	logger.Info("masthead composed",
		logging.String("label", label),
		logging.Float64("width", resized.Width()),
		logging.String("font", frame.FontName()),
	)
	return out, nil
}
