package plan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"planmark/pkg/core"
)

const testSVG = `<svg viewBox="0 0 800 600"><rect x="100" y="100" width="200" height="150"/></svg>`

func testElements() []Element {
	return []Element{
		{
			ElementID:        "wall-001",
			Name:             "North Wall",
			Category:         "Wall",
			StaticProperties: map[string]string{"material": "Concrete"},
			Bounds:           [4]float64{100, 100, 300, 250},
		},
		{
			ElementID:        "col-007",
			Name:             "Column C7",
			Category:         "Column",
			StaticProperties: map[string]string{"material": "Steel"},
			Bounds:           [4]float64{250, 200, 320, 280},
		},
	}
}

func newPlanServer(t *testing.T, svgHits, elemHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/plan.svg", func(w http.ResponseWriter, r *http.Request) {
		if svgHits != nil {
			svgHits.Add(1)
		}
		w.Write([]byte(testSVG))
	})
	mux.HandleFunc("/elements.json", func(w http.ResponseWriter, r *http.Request) {
		if elemHits != nil {
			elemHits.Add(1)
		}
		json.NewEncoder(w).Encode(testElements())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoader_FetchesPlanAndElements(t *testing.T) {
	srv := newPlanServer(t, nil, nil)
	loader := NewLoader(srv.URL+"/plan.svg", srv.URL+"/elements.json")

	if err := loader.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loader.SVG() != testSVG {
		t.Errorf("unexpected SVG content: %q", loader.SVG())
	}
	elements := loader.Elements()
	if len(elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elements))
	}
	if elements[0].ElementID != "wall-001" {
		t.Errorf("expected wall-001, got %s", elements[0].ElementID)
	}
	if elements[0].StaticProperties["material"] != "Concrete" {
		t.Errorf("expected Concrete material, got %s", elements[0].StaticProperties["material"])
	}
}

func TestLoader_CachesAfterFirstLoad(t *testing.T) {
	var svgHits, elemHits atomic.Int32
	srv := newPlanServer(t, &svgHits, &elemHits)
	loader := NewLoader(srv.URL+"/plan.svg", srv.URL+"/elements.json")

	for i := 0; i < 3; i++ {
		if err := loader.Load(context.Background()); err != nil {
			t.Fatalf("unexpected error on load %d: %v", i, err)
		}
	}

	if svgHits.Load() != 1 {
		t.Errorf("expected 1 SVG fetch, got %d", svgHits.Load())
	}
	if elemHits.Load() != 1 {
		t.Errorf("expected 1 elements fetch, got %d", elemHits.Load())
	}
}

func TestLoader_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	loader := NewLoader(srv.URL+"/plan.svg", srv.URL+"/elements.json")
	if err := loader.Load(context.Background()); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestIndex_HitReturnsElementRecord(t *testing.T) {
	idx, err := NewIndex(testElements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	el := idx.Resolve(core.Position2D{X: 150, Y: 150})
	if el == nil {
		t.Fatal("expected a hit inside wall-001")
	}
	if el.ElementID != "wall-001" {
		t.Errorf("expected wall-001, got %s", el.ElementID)
	}
	if el.Name != "North Wall" {
		t.Errorf("expected North Wall, got %s", el.Name)
	}
	if el.Category != "Wall" {
		t.Errorf("expected Wall category, got %s", el.Category)
	}
	if el.Material() != "Concrete" {
		t.Errorf("expected Concrete, got %s", el.Material())
	}
}

func TestIndex_BackgroundTapIsNotAnError(t *testing.T) {
	idx, err := NewIndex(testElements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hits := idx.Query(core.Position2D{X: 700, Y: 500}); len(hits) != 0 {
		t.Errorf("expected no hits on background, got %d", len(hits))
	}
	if el := idx.Resolve(core.Position2D{X: 700, Y: 500}); el != nil {
		t.Errorf("expected nil element on background, got %s", el.ElementID)
	}
}

func TestIndex_OverlapPrefersTopmost(t *testing.T) {
	idx, err := NewIndex(testElements())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (260, 220) is inside both wall-001 and col-007. The column is
	// later in the list, so it is drawn on top and wins.
	hits := idx.Query(core.Position2D{X: 260, Y: 220})
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ElementID != "col-007" {
		t.Errorf("expected col-007 first, got %s", hits[0].ElementID)
	}
	if hits[1].ElementID != "wall-001" {
		t.Errorf("expected wall-001 second, got %s", hits[1].ElementID)
	}
}

func TestNewIndex_DegenerateBounds(t *testing.T) {
	_, err := NewIndex([]Element{
		{ElementID: "bad", Bounds: [4]float64{100, 100, 100, 250}},
	})
	if err == nil {
		t.Fatal("expected error for zero-width bounds")
	}
}
