// Package sketch parses and renders the freehand drawings inspectors
// make over defect photos.
package sketch

import (
	"encoding/json"
	"fmt"

	"planmark/pkg/core"
)

// Stroke is one continuous brush movement.
type Stroke struct {
	Points      []core.Position2D `json:"points"`
	BrushColor  string            `json:"brushColor"`
	BrushRadius float64           `json:"brushRadius"`
}

// Drawing is the stored sketch format: an ordered list of strokes over
// a canvas of the given size.
type Drawing struct {
	Lines  []Stroke `json:"lines"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// Parse decodes stored drawing data.
func Parse(data string) (Drawing, error) {
	var d Drawing
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return Drawing{}, fmt.Errorf("failed to parse drawing data: %w", err)
	}
	return d, nil
}

// Empty reports whether the drawing has no visible strokes.
func (d Drawing) Empty() bool {
	for _, s := range d.Lines {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}
