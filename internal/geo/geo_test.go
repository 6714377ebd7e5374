package geo

import (
	"errors"
	"math"
	"testing"

	"planmark/pkg/core"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestToPlan_IdentityView(t *testing.T) {
	pt, err := ToPlan(Identity(), core.Position2D{X: 120.5, Y: 340.2})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(pt.X, 120.5) {
		t.Errorf("expected X=120.5, got %f", pt.X)
	}
	if !almostEqual(pt.Y, 340.2) {
		t.Errorf("expected Y=340.2, got %f", pt.Y)
	}
}

func TestToPlan_ScaledAndPannedView(t *testing.T) {
	// Plan rendered at 2x zoom, panned by (50, -30). A tap at the screen
	// position of plan point (120.5, 340.2) must resolve back to it.
	view := Transform{A: 2, D: 2, E: 50, F: -30}
	screen := view.Apply(core.Position2D{X: 120.5, Y: 340.2})

	pt, err := ToPlan(view, screen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(pt.X, 120.5) {
		t.Errorf("expected X=120.5, got %f", pt.X)
	}
	if !almostEqual(pt.Y, 340.2) {
		t.Errorf("expected Y=340.2, got %f", pt.Y)
	}
}

func TestToPlan_RotatedView(t *testing.T) {
	// 90 degree rotation: (x,y) -> (-y,x)
	view := Transform{A: 0, B: 1, C: -1, D: 0}
	pt, err := ToPlan(view, view.Apply(core.Position2D{X: 10, Y: 20}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(pt.X, 10) || !almostEqual(pt.Y, 20) {
		t.Errorf("expected (10,20), got (%f,%f)", pt.X, pt.Y)
	}
}

func TestToPlan_DegenerateView(t *testing.T) {
	_, err := ToPlan(Transform{}, core.Position2D{X: 1, Y: 1})

	if !errors.Is(err, ErrNonInvertibleTransform) {
		t.Errorf("expected ErrNonInvertibleTransform, got %v", err)
	}
}

func TestInvert_RoundTrip(t *testing.T) {
	view := Transform{A: 1.5, B: 0.2, C: -0.1, D: 1.5, E: 42, F: -7}
	inv, err := view.Invert()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orig := core.Position2D{X: 333.3, Y: 111.1}
	back := inv.Apply(view.Apply(orig))
	if !almostEqual(back.X, orig.X) || !almostEqual(back.Y, orig.Y) {
		t.Errorf("round trip mismatch: got (%f,%f)", back.X, back.Y)
	}
}

func TestInBounds(t *testing.T) {
	if !InBounds(core.Position2D{X: 0, Y: 0}) {
		t.Error("origin should be in bounds")
	}
	if !InBounds(core.Position2D{X: core.PlanWidth, Y: core.PlanHeight}) {
		t.Error("far corner should be in bounds")
	}
	if InBounds(core.Position2D{X: -0.1, Y: 10}) {
		t.Error("negative X should be out of bounds")
	}
	if InBounds(core.Position2D{X: 10, Y: core.PlanHeight + 1}) {
		t.Error("Y past plan height should be out of bounds")
	}
}

func TestParsePosition_Valid(t *testing.T) {
	pt, err := ParsePosition("120.5,340.2")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pt.X != 120.5 {
		t.Errorf("expected X=120.5, got %f", pt.X)
	}
	if pt.Y != 340.2 {
		t.Errorf("expected Y=340.2, got %f", pt.Y)
	}
}

func TestParsePosition_WithSpaces(t *testing.T) {
	pt, err := ParsePosition("100, 200")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pt.X != 100 || pt.Y != 200 {
		t.Errorf("expected (100,200), got (%f,%f)", pt.X, pt.Y)
	}
}

func TestParsePosition_Invalid(t *testing.T) {
	cases := []string{"", "100", "a,b", "1,2,3"}
	for _, c := range cases {
		if _, err := ParsePosition(c); !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("expected ErrInvalidCoordinates for %q, got %v", c, err)
		}
	}
}

func TestPoint_Coordinates(t *testing.T) {
	point := Point(core.Position2D{X: 400, Y: 300})

	coords, ok := point.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if coords.X != 400 {
		t.Errorf("expected X=400, got %f", coords.X)
	}
	if coords.Y != 300 {
		t.Errorf("expected Y=300, got %f", coords.Y)
	}
}
