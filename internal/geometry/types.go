package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Epsilon is the tolerance used when comparing computed coordinates.
const Epsilon = 1e-9

// Point is a plain 2D coordinate.
type Point struct {
	X float64 `toml:"x" json:"x"`
	Y float64 `toml:"y" json:"y"`
}

// Add returns p + other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Neg returns the point mirrored through the origin.
func (p Point) Neg() Point {
	return Point{X: -p.X, Y: -p.Y}
}

// ApproxEqual reports whether both coordinates agree within tol.
func (p Point) ApproxEqual(other Point, tol float64) bool {
	return scalar.EqualWithinAbs(p.X, other.X, tol) && scalar.EqualWithinAbs(p.Y, other.Y, tol)
}

// Rect is an axis-aligned box in the host convention: Y grows upward, so a
// box with positive height has Top > Bottom.
type Rect struct {
	Left   float64 `toml:"left" json:"left"`
	Top    float64 `toml:"top" json:"top"`
	Right  float64 `toml:"right" json:"right"`
	Bottom float64 `toml:"bottom" json:"bottom"`
}

// ToHostRect converts a top-left-origin, Y-down rectangle into the host
// convention.
func ToHostRect(x, y, width, height float64) Rect {
	return Rect{Left: x, Top: -y, Right: x + width, Bottom: -(y + height)}
}

// Width returns Right-Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Top-Bottom.
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Corner returns the top-left corner, which is also a node's position.
func (r Rect) Corner() Point { return Point{X: r.Left, Y: r.Top} }

// Center returns the midpoint of the box.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width()/2, Y: r.Top - r.Height()/2}
}

// Translate returns the box moved by delta.
func (r Rect) Translate(delta Point) Rect {
	return Rect{Left: r.Left + delta.X, Top: r.Top + delta.Y, Right: r.Right + delta.X, Bottom: r.Bottom + delta.Y}
}

// Union returns the smallest box containing both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, other.Left),
		Top:    math.Max(r.Top, other.Top),
		Right:  math.Max(r.Right, other.Right),
		Bottom: math.Min(r.Bottom, other.Bottom),
	}
}

// Contains reports whether other lies inside r within tol.
func (r Rect) Contains(other Rect, tol float64) bool {
	return other.Left >= r.Left-tol && other.Right <= r.Right+tol &&
		other.Top <= r.Top+tol && other.Bottom >= r.Bottom-tol
}

// Overlaps reports whether r and other share interior area.
func (r Rect) Overlaps(other Rect) bool {
	return r.Left < other.Right && other.Left < r.Right &&
		r.Bottom < other.Top && other.Bottom < r.Top
}

// ApproxEqual compares all four edges within tol.
func (r Rect) ApproxEqual(other Rect, tol float64) bool {
	return scalar.EqualWithinAbs(r.Left, other.Left, tol) &&
		scalar.EqualWithinAbs(r.Top, other.Top, tol) &&
		scalar.EqualWithinAbs(r.Right, other.Right, tol) &&
		scalar.EqualWithinAbs(r.Bottom, other.Bottom, tol)
}

// Affine is a 2D affine transform [A B C; D E F] mapping (x, y) to
// (A*x + B*y + C, D*x + E*y + F).
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translation returns a pure translation.
func Translation(dx, dy float64) Affine {
	return Affine{A: 1, C: dx, E: 1, F: dy}
}

// ScaleAbout returns a uniform scale by factor that keeps origin fixed.
func ScaleAbout(origin Point, factor float64) Affine {
	return Affine{
		A: factor, C: origin.X - factor*origin.X,
		E: factor, F: origin.Y - factor*origin.Y,
	}
}

// Apply transforms p.
func (t Affine) Apply(p Point) Point {
	return Point{X: t.A*p.X + t.B*p.Y + t.C, Y: t.D*p.X + t.E*p.Y + t.F}
}

// Then returns the transform that applies t followed by next.
func (t Affine) Then(next Affine) Affine {
	return Affine{
		A: next.A*t.A + next.B*t.D,
		B: next.A*t.B + next.B*t.E,
		C: next.A*t.C + next.B*t.F + next.C,
		D: next.D*t.A + next.E*t.D,
		E: next.D*t.B + next.E*t.E,
		F: next.D*t.C + next.E*t.F + next.F,
	}
}
