package geometry

import (
	"errors"
	"fmt"
)

// ErrDegenerate reports a zero or negative size where a positive one is required.
var ErrDegenerate = errors.New("degenerate size")

// Placeable is the slice of a scene node the geometry functions need.
// Position is the top-left corner of the node's bounds in host coordinates.
type Placeable interface {
	Bounds() Rect
	Translate(delta Point)
	// Scale resizes uniformly by factor, keeping the top-left corner fixed.
	Scale(factor float64)
}

// Offset returns a-b.
func Offset(a, b Point) Point {
	return Point{X: a.X - b.X, Y: a.Y - b.Y}
}

// TranslateTo moves node so its position equals destination.
func TranslateTo(node Placeable, destination Point) {
	delta := Offset(node.Bounds().Corner(), destination)
	node.Translate(delta.Neg())
}

// FitFactor returns the uniform contain-fit factor for a width x height box
// inside maxWidth x maxHeight.
func FitFactor(width, height, maxWidth, maxHeight float64) (float64, error) {
	if width <= 0 || height <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return 0, fmt.Errorf("%w: fit %gx%g into %gx%g", ErrDegenerate, width, height, maxWidth, maxHeight)
	}
	if width/height > maxWidth/maxHeight {
		return maxWidth / width, nil
	}
	return maxHeight / height, nil
}

// ScaleToFit scales node uniformly so it fits maxWidth x maxHeight with
// equality on at least one axis. It returns the factor applied.
func ScaleToFit(node Placeable, maxWidth, maxHeight float64) (float64, error) {
	b := node.Bounds()
	factor, err := FitFactor(b.Width(), b.Height(), maxWidth, maxHeight)
	if err != nil {
		return 0, err
	}
	node.Scale(factor)
	return factor, nil
}

// CenterWithin moves node so its center matches the center of zone.
func CenterWithin(node Placeable, zone Rect) {
	delta := Offset(zone.Center(), node.Bounds().Center())
	node.Translate(delta)
}

// PlaceInZone runs the landing-zone algorithm: scale node to fit zone, then
// center it there. The zone is only a sizing target and is not retained.
func PlaceInZone(node Placeable, zone Rect) error {
	if _, err := ScaleToFit(node, zone.Width(), zone.Height()); err != nil {
		return err
	}
	CenterWithin(node, zone)
	return nil
}
