package plan

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"planmark/internal/geo"
	"planmark/pkg/core"
)

// HitTester resolves a plan-space position to the elements under it.
type HitTester interface {
	Query(pt core.Position2D) []core.PlanElement
}

// Region is one element's outline on the plan canvas.
type Region struct {
	Element core.PlanElement
	Outline geom.Polygon
}

// Index is a spatial index over plan element outlines.
// Elements later in the source list are drawn on top and win hit tests.
type Index struct {
	regions []Region
}

// NewIndex builds a spatial index from the loaded element list.
func NewIndex(elements []Element) (*Index, error) {
	regions := make([]Region, 0, len(elements))
	for _, e := range elements {
		outline, err := rectPolygon(e.Bounds)
		if err != nil {
			return nil, fmt.Errorf("element %s has invalid bounds: %w", e.ElementID, err)
		}
		regions = append(regions, Region{Element: e.Core(), Outline: outline})
	}
	return &Index{regions: regions}, nil
}

// rectPolygon builds a closed rectangle polygon from [minX, minY, maxX, maxY].
func rectPolygon(b [4]float64) (geom.Polygon, error) {
	if b[2] <= b[0] || b[3] <= b[1] {
		return geom.Polygon{}, fmt.Errorf("degenerate bounds %v", b)
	}
	wkt := fmt.Sprintf(
		"POLYGON((%[1]f %[2]f, %[3]f %[2]f, %[3]f %[4]f, %[1]f %[4]f, %[1]f %[2]f))",
		b[0], b[1], b[2], b[3],
	)
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return geom.Polygon{}, err
	}
	poly, ok := g.AsPolygon()
	if !ok {
		return geom.Polygon{}, fmt.Errorf("bounds did not form a polygon")
	}
	return poly, nil
}

// Query returns all elements containing the given plan position,
// topmost first. A miss returns an empty slice, never an error.
func (idx *Index) Query(pt core.Position2D) []core.PlanElement {
	point := geo.Point(pt).AsGeometry()

	var hits []core.PlanElement
	for i := len(idx.regions) - 1; i >= 0; i-- {
		r := idx.regions[i]
		if geom.Intersects(point, r.Outline.AsGeometry()) {
			hits = append(hits, r.Element)
		}
	}
	return hits
}

// Resolve returns the topmost element at the given position, or nil
// when the tap landed on plan background.
func (idx *Index) Resolve(pt core.Position2D) *core.PlanElement {
	hits := idx.Query(pt)
	if len(hits) == 0 {
		return nil
	}
	el := hits[0]
	return &el
}
