package geometry_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"iconforge/internal/geometry"
)

type box struct {
	rect geometry.Rect
}

func newBox(x, y, w, h float64) *box {
	return &box{rect: geometry.ToHostRect(x, y, w, h)}
}

func (b *box) Bounds() geometry.Rect { return b.rect }

func (b *box) Translate(delta geometry.Point) { b.rect = b.rect.Translate(delta) }

func (b *box) Scale(factor float64) {
	w, h := b.rect.Width()*factor, b.rect.Height()*factor
	b.rect.Right = b.rect.Left + w
	b.rect.Bottom = b.rect.Top - h
}

const tol = 1e-9

func TestOffset(t *testing.T) {
	got := geometry.Offset(geometry.Point{X: 10, Y: -4}, geometry.Point{X: 3, Y: 6})
	if got != (geometry.Point{X: 7, Y: -10}) {
		t.Fatalf("unexpected offset %+v", got)
	}
}

func TestTranslateTo(t *testing.T) {
	b := newBox(40, 50, 20, 30)
	dest := geometry.Point{X: -12.5, Y: 300.25}
	geometry.TranslateTo(b, dest)
	if !b.Bounds().Corner().ApproxEqual(dest, tol) {
		t.Fatalf("expected position %+v, got %+v", dest, b.Bounds().Corner())
	}
	if math.Abs(b.Bounds().Width()-20) > tol || math.Abs(b.Bounds().Height()-30) > tol {
		t.Fatalf("translation changed size: %+v", b.Bounds())
	}
}

func TestToHostRectRecoversSize(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		x, y := rng.Float64()*2000-1000, rng.Float64()*2000-1000
		w, h := float64(rng.IntN(4096)+1), float64(rng.IntN(4096)+1)
		r := geometry.ToHostRect(x, y, w, h)
		if r.Left != x || r.Top != -y {
			t.Fatalf("corner mismatch for (%g,%g): %+v", x, y, r)
		}
		if r.Width() != w || r.Height() != h {
			t.Fatalf("ToHostRect(%g,%g,%g,%g) recovered %gx%g", x, y, w, h, r.Width(), r.Height())
		}
	}
}

func TestScaleToFitContainsAndPreservesAspect(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 1000; i++ {
		w, h := rng.Float64()*1000+0.01, rng.Float64()*1000+0.01
		mw, mh := rng.Float64()*1000+0.01, rng.Float64()*1000+0.01
		b := newBox(0, 0, w, h)
		if _, err := geometry.ScaleToFit(b, mw, mh); err != nil {
			t.Fatalf("ScaleToFit: %v", err)
		}
		gw, gh := b.Bounds().Width(), b.Bounds().Height()
		eps := 1e-9 * math.Max(mw, mh)
		if gw > mw+eps || gh > mh+eps {
			t.Fatalf("result %gx%g exceeds %gx%g", gw, gh, mw, mh)
		}
		if math.Abs(gw-mw) > eps && math.Abs(gh-mh) > eps {
			t.Fatalf("no axis reaches its bound: %gx%g in %gx%g", gw, gh, mw, mh)
		}
		if math.Abs(w/h-gw/gh) > 1e-9*(w/h) {
			t.Fatalf("aspect changed from %g to %g", w/h, gw/gh)
		}
	}
}

func TestScaleToFitPicksAxis(t *testing.T) {
	wide := newBox(0, 0, 400, 100)
	factor, err := geometry.ScaleToFit(wide, 200, 200)
	if err != nil {
		t.Fatalf("ScaleToFit: %v", err)
	}
	if factor != 0.5 {
		t.Fatalf("expected width-bound factor 0.5, got %g", factor)
	}
	tall := newBox(0, 0, 100, 400)
	factor, _ = geometry.ScaleToFit(tall, 200, 200)
	if factor != 0.5 || tall.Bounds().Height() != 200 {
		t.Fatalf("expected height-bound factor 0.5, got %g (%+v)", factor, tall.Bounds())
	}
}

func TestScaleToFitRejectsDegenerate(t *testing.T) {
	flat := newBox(0, 0, 10, 0)
	if _, err := geometry.ScaleToFit(flat, 100, 100); !errors.Is(err, geometry.ErrDegenerate) {
		t.Fatalf("expected ErrDegenerate, got %v", err)
	}
}

func TestCenterWithin(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 500; i++ {
		zone := geometry.ToHostRect(rng.Float64()*500, rng.Float64()*500, rng.Float64()*300+1, rng.Float64()*300+1)
		b := newBox(rng.Float64()*900-450, rng.Float64()*900-450, rng.Float64()*50+1, rng.Float64()*50+1)
		geometry.CenterWithin(b, zone)
		if !b.Bounds().Center().ApproxEqual(zone.Center(), 1e-9) {
			t.Fatalf("center %+v != zone center %+v", b.Bounds().Center(), zone.Center())
		}
	}
}

func TestPlaceInZone(t *testing.T) {
	zone := geometry.ToHostRect(522, 26, 460, 460)
	icon := newBox(0, 0, 256, 128)
	if err := geometry.PlaceInZone(icon, zone); err != nil {
		t.Fatalf("PlaceInZone: %v", err)
	}
	got := icon.Bounds()
	want := geometry.ToHostRect(522, 141, 460, 230)
	if !got.ApproxEqual(want, 1e-9) {
		t.Fatalf("placed at %+v, want %+v", got, want)
	}
	if !zone.Contains(got, 1e-9) {
		t.Fatalf("placed icon %+v escapes zone %+v", got, zone)
	}
}

func TestAffineThen(t *testing.T) {
	scale := geometry.ScaleAbout(geometry.Point{X: 10, Y: 10}, 2)
	move := geometry.Translation(5, -5)
	p := scale.Then(move).Apply(geometry.Point{X: 12, Y: 10})
	if !p.ApproxEqual(geometry.Point{X: 19, Y: 5}, tol) {
		t.Fatalf("unexpected composed point %+v", p)
	}
	if id := geometry.Identity().Apply(geometry.Point{X: 3, Y: 4}); id != (geometry.Point{X: 3, Y: 4}) {
		t.Fatalf("identity moved point to %+v", id)
	}
}

func TestRectUnion(t *testing.T) {
	a := geometry.ToHostRect(0, 0, 10, 10)
	b := geometry.ToHostRect(5, 20, 10, 5)
	u := a.Union(b)
	if u != geometry.ToHostRect(0, 0, 15, 25) {
		t.Fatalf("unexpected union %+v", u)
	}
}
