// pkg/core/marker.go
package core

import (
	"errors"
	"time"
)

// PlanWidth and PlanHeight bound the plan's fixed logical coordinate
// space. Marker coordinates are always expressed in this space,
// independent of the viewport's current pan/zoom.
const (
	PlanWidth  = 800.0
	PlanHeight = 600.0
)

// ErrDuplicateMarker is returned when a marker ID is already present in
// the store.
var ErrDuplicateMarker = errors.New("marker id already present")

// ErrMarkerSealed is returned when updating a marker that already
// carries analysis metrics. Such markers may only be deleted.
var ErrMarkerSealed = errors.New("marker is sealed after analysis")

// ViewMode gates whether plan taps create markers or open marker detail.
type ViewMode string

const (
	ModeInspect ViewMode = "INSPECT"
	ModeReview  ViewMode = "REVIEW"
)

// Metrics maps named numeric measurements (width, length, area, depth,
// count) extracted by the analysis service.
type Metrics map[string]float64

// Marker is a single inspection record tied to a plan location.
// CreatedAt is unix milliseconds, used only for display ordering and
// formatting; ID doubles as identity and sort key.
type Marker struct {
	ID          int64   `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	PhotoURL    string  `json:"photoUrl"`
	TextValue   string  `json:"textValue"`
	DrawingData string  `json:"drawingData"`
	CreatedAt   int64   `json:"createdAt"`
	DefectType  string  `json:"defectType,omitempty"`
	Metrics     Metrics `json:"metrics,omitempty"`
}

// NewID derives a marker identifier from the creation time.
func NewID(t time.Time) int64 {
	return t.UnixMilli()
}

// Sealed reports whether analysis metrics have been attached. A sealed
// marker is immutable except for deletion.
func (m *Marker) Sealed() bool {
	return len(m.Metrics) > 0
}

// MarkerPatch carries the subset of marker fields a partial update may
// touch. Nil members are left unchanged.
type MarkerPatch struct {
	PhotoURL    *string
	TextValue   *string
	DrawingData *string
	DefectType  *string
	Metrics     Metrics
}

// Apply merges the patch into the marker.
func (p MarkerPatch) Apply(m *Marker) {
	if p.PhotoURL != nil {
		m.PhotoURL = *p.PhotoURL
	}
	if p.TextValue != nil {
		m.TextValue = *p.TextValue
	}
	if p.DrawingData != nil {
		m.DrawingData = *p.DrawingData
	}
	if p.DefectType != nil {
		m.DefectType = *p.DefectType
	}
	if p.Metrics != nil {
		m.Metrics = p.Metrics
	}
}

// Position2D is a plan-local coordinate pair.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
