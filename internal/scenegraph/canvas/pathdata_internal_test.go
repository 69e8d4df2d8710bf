package canvas

import (
	"testing"

	"iconforge/internal/geometry"
)

func TestParsePathDataFlipsY(t *testing.T) {
	segs, err := parsePathData("M 10 20 L 30 20 L 30 40 Z")
	if err != nil {
		t.Fatalf("parsePathData: %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segs))
	}
	if segs[0].op != opMove || segs[0].pts[0] != (geometry.Point{X: 10, Y: -20}) {
		t.Fatalf("unexpected move %+v", segs[0])
	}
	if segs[3].op != opClose {
		t.Fatalf("expected close, got %c", segs[3].op)
	}
	b, ok := segmentBounds(segs)
	if !ok || b != geometry.ToHostRect(10, 20, 20, 20) {
		t.Fatalf("unexpected bounds %+v", b)
	}
}

func TestParsePathDataRelativeAndImplicit(t *testing.T) {
	segs, err := parsePathData("m10,10 5,0 v5 h-5 z M0 0 q 5 5 10 0 c 1 1 2 2 3 3")
	if err != nil {
		t.Fatalf("parsePathData: %v", err)
	}
	want := []segment{
		{op: opMove, pts: [3]geometry.Point{{X: 10, Y: -10}}},
		{op: opLine, pts: [3]geometry.Point{{X: 15, Y: -10}}},
		{op: opLine, pts: [3]geometry.Point{{X: 15, Y: -15}}},
		{op: opLine, pts: [3]geometry.Point{{X: 10, Y: -15}}},
		{op: opClose},
		{op: opMove, pts: [3]geometry.Point{{X: 0, Y: 0}}},
		{op: opQuad, pts: [3]geometry.Point{{X: 5, Y: -5}, {X: 10, Y: 0}}},
		{op: opCubic, pts: [3]geometry.Point{{X: 11, Y: -1}, {X: 12, Y: -2}, {X: 13, Y: -3}}},
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(segs), segs)
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Fatalf("segment %d: got %+v want %+v", i, segs[i], want[i])
		}
	}
}

func TestParsePathDataErrors(t *testing.T) {
	for _, data := range []string{"10 10", "M 10", "L 1 1", "M 0 0 X 1 1", "M 0 0 Z 4"} {
		if _, err := parsePathData(data); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}

func TestFormatPathDataRoundTrip(t *testing.T) {
	in := "M 0 0 L 256 0 Q 300 128 256 256 C 200 300 50 300 0 256 Z"
	segs, err := parsePathData(in)
	if err != nil {
		t.Fatalf("parsePathData: %v", err)
	}
	if out := formatPathData(segs, geometry.Point{}); out != in {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", out, in)
	}
	shifted := formatPathData(segs, geometry.Point{X: 100, Y: -50})
	if shifted[:12] != "M -100 -50 L" {
		t.Fatalf("unexpected offset rendering %q", shifted)
	}
}

func TestQuadToCubic(t *testing.T) {
	c1, c2 := quadToCubic(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 3, Y: 3}, geometry.Point{X: 6, Y: 0})
	if !c1.ApproxEqual(geometry.Point{X: 2, Y: 2}, 1e-12) || !c2.ApproxEqual(geometry.Point{X: 4, Y: 2}, 1e-12) {
		t.Fatalf("unexpected control points %+v %+v", c1, c2)
	}
}
