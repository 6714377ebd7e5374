package geo

import (
	"errors"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"planmark/pkg/core"
)

// PLAN COORDINATES
// All marker positions live in the floor plan's logical coordinate space
// (800x600, origin top-left). Screen taps arrive in device pixels and are
// mapped into plan space by inverting the current view transform, so zoom
// and pan never change where a stored marker sits on the plan.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrNonInvertibleTransform is returned when a view transform has collapsed
// (zero determinant) and screen points cannot be mapped back to the plan.
var ErrNonInvertibleTransform = errors.New("view transform is not invertible")

// Transform is a 2D affine transform in SVG matrix order:
//
//	| A C E |
//	| B D F |
//
// mapping plan coordinates to screen coordinates.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the transform that maps every point to itself.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Scale returns a uniform scale transform about the origin.
func Scale(s float64) Transform {
	return Transform{A: s, D: s}
}

// Translate returns a pure translation transform.
func Translate(dx, dy float64) Transform {
	return Transform{A: 1, D: 1, E: dx, F: dy}
}

// Apply maps a plan-space position to screen space.
func (t Transform) Apply(p core.Position2D) core.Position2D {
	return core.Position2D{
		X: t.A*p.X + t.C*p.Y + t.E,
		Y: t.B*p.X + t.D*p.Y + t.F,
	}
}

// Invert returns the inverse transform, or ErrNonInvertibleTransform when
// the determinant is zero.
func (t Transform) Invert() (Transform, error) {
	det := t.A*t.D - t.B*t.C
	if det == 0 {
		return Transform{}, ErrNonInvertibleTransform
	}
	inv := 1 / det
	return Transform{
		A: t.D * inv,
		B: -t.B * inv,
		C: -t.C * inv,
		D: t.A * inv,
		E: (t.C*t.F - t.D*t.E) * inv,
		F: (t.B*t.E - t.A*t.F) * inv,
	}, nil
}

// ToPlan maps a screen-space point back into plan coordinates by applying
// the inverse of the current view transform.
func ToPlan(view Transform, screen core.Position2D) (core.Position2D, error) {
	inv, err := view.Invert()
	if err != nil {
		return core.Position2D{}, err
	}
	return inv.Apply(screen), nil
}

// InBounds reports whether a plan-space position lies on the plan canvas.
func InBounds(p core.Position2D) bool {
	return p.X >= 0 && p.X <= core.PlanWidth && p.Y >= 0 && p.Y <= core.PlanHeight
}

// Point converts a plan position into a geometry point for spatial queries.
func Point(p core.Position2D) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Type: geom.DimXY,
		},
	)
}

// ParsePosition parses a string in the format "x,y" into a plan position.
func ParsePosition(coords string) (core.Position2D, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Position2D{}, ErrInvalidCoordinates
	}
	return core.Position2D{X: x, Y: y}, nil
}
