package sketch

import (
	"bytes"
	"testing"

	"planmark/pkg/core"
)

const sampleDrawing = `{
	"lines": [
		{
			"points": [{"x": 10, "y": 10}, {"x": 50, "y": 60}, {"x": 90, "y": 40}],
			"brushColor": "#df4b26",
			"brushRadius": 2
		},
		{
			"points": [{"x": 200, "y": 200}],
			"brushColor": "red",
			"brushRadius": 3
		}
	],
	"width": 400,
	"height": 300
}`

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

func TestParse_ValidDrawing(t *testing.T) {
	d, err := Parse(sampleDrawing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.Lines) != 2 {
		t.Fatalf("expected 2 strokes, got %d", len(d.Lines))
	}
	if d.Lines[0].Points[1].X != 50 {
		t.Errorf("expected second point X=50, got %f", d.Lines[0].Points[1].X)
	}
	if d.Width != 400 || d.Height != 300 {
		t.Errorf("expected 400x300 canvas, got %dx%d", d.Width, d.Height)
	}
	if d.Empty() {
		t.Error("drawing with strokes must not be empty")
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	if _, err := Parse("{not json"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEmpty(t *testing.T) {
	if !(Drawing{}).Empty() {
		t.Error("zero drawing must be empty")
	}
	d := Drawing{Lines: []Stroke{{BrushColor: "red"}}}
	if !d.Empty() {
		t.Error("stroke without points must count as empty")
	}
}

func TestRenderPNG_ProducesPNG(t *testing.T) {
	d, err := Parse(sampleDrawing)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	png, err := RenderPNG(d, "marker 1717000000000")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output does not start with PNG magic bytes")
	}
}

func TestRenderPNG_DefaultsCanvasSize(t *testing.T) {
	d := Drawing{Lines: []Stroke{
		{Points: []core.Position2D{{X: 1, Y: 1}, {X: 2, Y: 2}}, BrushRadius: 1},
	}}

	png, err := RenderPNG(d, "")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("output does not start with PNG magic bytes")
	}
}
