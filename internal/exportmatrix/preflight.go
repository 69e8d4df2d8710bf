package exportmatrix

import (
	"context"
	"fmt"
	"math"

	"iconforge/internal/config"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// Mode is how the run treats the source document's artboards.
type Mode string

const (
	// ModeFresh adds the masthead artboard next to the icon artboard.
	ModeFresh Mode = "fresh"
	// ModeRebuild clears and regenerates an existing masthead artboard.
	ModeRebuild Mode = "rebuild"
)

const sizeTolerance = 0.5

// Preflight is the validated starting point of a run. Nothing has been
// mutated when it is returned.
type Preflight struct {
	Mode      Mode
	Selection []scenegraph.Node
}

// Inspect checks the source document without changing it: the icon
// artboard must hold artwork, and the artboard layout must match a fresh
// or rebuild run.
func Inspect(doc scenegraph.Document, src config.Source) (Preflight, error) {
	boards := doc.Artboards()
	if len(boards) == 0 {
		return Preflight{}, services.Wrap(services.ErrValidation, "preflight", "artboards", "document has no artboards", nil)
	}
	selection, err := doc.ItemsOnArtboard(0)
	if err != nil {
		return Preflight{}, services.Wrap(services.ErrExternalTool, "preflight", "selection", "select artboard 0", err)
	}
	if len(selection) == 0 {
		return Preflight{}, services.Wrap(services.ErrValidation, "preflight", "selection",
			"no artwork on the icon artboard", nil)
	}

	icon := boards[0]
	if !near(icon.Width(), src.ArtboardSize) || !near(icon.Height(), src.ArtboardSize) {
		return Preflight{}, services.Wrap(services.ErrValidation, "preflight", "artboards",
			fmt.Sprintf("icon artboard is %gx%g, expected %gx%g", icon.Width(), icon.Height(), src.ArtboardSize, src.ArtboardSize), nil)
	}
	switch len(boards) {
	case 1:
		return Preflight{Mode: ModeFresh, Selection: selection}, nil
	case 2:
		if !near(boards[1].Height(), src.MastheadHeight) {
			return Preflight{}, services.Wrap(services.ErrValidation, "preflight", "artboards",
				fmt.Sprintf("second artboard is %g tall, expected a %g masthead", boards[1].Height(), src.MastheadHeight), nil)
		}
		return Preflight{Mode: ModeRebuild, Selection: selection}, nil
	default:
		return Preflight{}, services.Wrap(services.ErrValidation, "preflight", "artboards",
			fmt.Sprintf("expected 1 or 2 artboards, found %d", len(boards)), nil)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= sizeTolerance
}

// confirmRebuild asks before clearing derived artboards. assumeYes skips the
// prompt. A decline returns ErrAborted.
func confirmRebuild(ctx context.Context, interaction scenegraph.Interaction, assumeYes bool) error {
	if assumeYes {
		return nil
	}
	if interaction == nil {
		return services.Wrap(services.ErrValidation, "preflight", "rebuild",
			"derived artboards exist and no confirmation is possible; pass --yes to rebuild", nil)
	}
	ok, err := interaction.Confirm(ctx,
		"It looks like this artwork was already exported. Rebuild the masthead and export every variant again?")
	if err != nil {
		return services.Wrap(services.ErrAborted, "preflight", "rebuild", "confirmation failed", err)
	}
	if !ok {
		return services.Wrap(services.ErrAborted, "preflight", "rebuild", "rebuild declined", nil)
	}
	return nil
}
