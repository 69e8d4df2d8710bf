package recolor

import (
	"fmt"

	"iconforge/internal/palette"
	"iconforge/internal/scenegraph"
	"iconforge/internal/services"
)

// Matcher reports whether a fill matches a target color in one color model.
type Matcher func(fill, target palette.Color) bool

// MatcherFor returns the tolerance matcher for a color space.
func MatcherFor(space palette.ColorSpace) Matcher {
	return func(fill, target palette.Color) bool {
		return fill.Space == space && palette.Matches(fill, target)
	}
}

// ReplaceMatching sets every item whose fill matches from to to. It returns
// the number of items changed.
func ReplaceMatching(items []scenegraph.PathItem, from, to palette.Color, match Matcher) int {
	changed := 0
	for _, item := range items {
		if match(item.Fill(), from) {
			item.SetFill(to)
			changed++
		}
	}
	return changed
}

// ForceAll sets every item's fill and opacity unconditionally.
func ForceAll(items []scenegraph.PathItem, c palette.Color, opacity float64) {
	for _, item := range items {
		item.SetFill(c)
		item.SetOpacity(opacity)
	}
}

// Fills returns the current fill of every item in order, the input to
// Palette.IndexAll.
func Fills(items []scenegraph.PathItem) []palette.Color {
	out := make([]palette.Color, len(items))
	for i, item := range items {
		out[i] = item.Fill()
	}
	return out
}

// UnmatchedFunc is called for items whose index is palette.NotFound. A
// non-nil error stops the conversion.
type UnmatchedFunc func(item scenegraph.PathItem) error

// RemapIndexedToCMYK sets item i to the CMYK value of palette row index[i].
// index must have been captured from these same items before any recolor;
// a length mismatch means the items changed since and is an ordering error.
func RemapIndexedToCMYK(items []scenegraph.PathItem, p *palette.Palette, index []int, onUnmatched UnmatchedFunc) error {
	if len(index) != len(items) {
		return services.Wrap(services.ErrOrdering, "recolor", "remap cmyk",
			fmt.Sprintf("index covers %d items but document has %d", len(index), len(items)), nil)
	}
	for i, item := range items {
		row := index[i]
		if row == palette.NotFound || row < 0 || row >= p.Len() {
			if onUnmatched == nil {
				continue
			}
			if err := onUnmatched(item); err != nil {
				return err
			}
			continue
		}
		item.SetFill(p.Row(row).CMYK)
	}
	return nil
}
