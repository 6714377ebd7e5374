// Package review presents saved markers: the list, the per-marker
// detail view, and guarded deletion.
package review

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"planmark/internal/dispatcher"
	"planmark/internal/sketch"
	"planmark/internal/store"
	"planmark/pkg/core"
)

var (
	// ErrUnknownMarker is returned when the requested marker does not exist.
	ErrUnknownMarker = errors.New("marker not found")
	// ErrDeleteDeclined is returned when the user cancels a deletion.
	ErrDeleteDeclined = errors.New("deletion declined")
	// ErrNoSketch is returned when rendering a marker without a drawing.
	ErrNoSketch = errors.New("marker has no sketch")
)

// maxListTextLen bounds note previews in the list view.
const maxListTextLen = 60

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ListEntry is the list-view projection of a marker.
type ListEntry struct {
	ID         int64
	Text       string
	DefectType string
	HasPhoto   bool
	HasSketch  bool
	CreatedAt  string
}

// Detail is the full detail-view projection of a marker.
type Detail struct {
	Marker    core.Marker
	CreatedAt string
	HasSketch bool
}

// Surface exposes saved markers for browsing.
type Surface struct {
	records store.Store
	confirm Confirmer
	log     *slog.Logger
	events  *dispatcher.Dispatcher
}

// NewSurface creates a review surface over the marker store.
func NewSurface(records store.Store, confirm Confirmer, log *slog.Logger) *Surface {
	return &Surface{records: records, confirm: confirm, log: log}
}

// WithEvents publishes deletion events to the given bus.
func (s *Surface) WithEvents(events *dispatcher.Dispatcher) *Surface {
	s.events = events
	return s
}

// List returns all saved markers in creation order.
func (s *Surface) List() []ListEntry {
	markers := s.records.Records()
	entries := make([]ListEntry, 0, len(markers))
	for _, m := range markers {
		entries = append(entries, ListEntry{
			ID:         m.ID,
			Text:       truncate(m.TextValue, maxListTextLen),
			DefectType: m.DefectType,
			HasPhoto:   m.PhotoURL != "",
			HasSketch:  m.DrawingData != "",
			CreatedAt:  formatCreatedAt(m.CreatedAt),
		})
	}
	return entries
}

// Select opens a marker's detail view. The store switches to review
// mode so plan taps stop creating markers while detail is open.
func (s *Surface) Select(id int64) (Detail, error) {
	m, ok := s.records.Record(id)
	if !ok {
		return Detail{}, fmt.Errorf("%w: %d", ErrUnknownMarker, id)
	}

	s.records.SetMode(core.ModeReview)
	s.records.SetActiveRecord(id)

	return Detail{
		Marker:    m,
		CreatedAt: formatCreatedAt(m.CreatedAt),
		HasSketch: m.DrawingData != "",
	}, nil
}

// Close leaves the detail view and returns to inspecting.
func (s *Surface) Close() {
	s.records.ClearActiveRecord()
	s.records.SetMode(core.ModeInspect)
}

// Delete removes a marker after user confirmation.
func (s *Surface) Delete(id int64) error {
	m, ok := s.records.Record(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, id)
	}

	prompt := fmt.Sprintf("Delete marker from %s?", formatCreatedAt(m.CreatedAt))
	if !s.confirm.Confirm(prompt) {
		return ErrDeleteDeclined
	}

	if err := s.records.RemoveRecord(id); err != nil {
		return fmt.Errorf("failed to delete marker: %w", err)
	}
	if s.events != nil {
		s.events.Publish("marker:deleted", m)
	}
	s.log.Info("Marker deleted", "id", id)
	return nil
}

// RenderSketch rasterizes a marker's drawing for the detail view.
func (s *Surface) RenderSketch(id int64) ([]byte, error) {
	m, ok := s.records.Record(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMarker, id)
	}
	if m.DrawingData == "" {
		return nil, ErrNoSketch
	}

	d, err := sketch.Parse(m.DrawingData)
	if err != nil {
		return nil, err
	}
	return sketch.RenderPNG(d, fmt.Sprintf("marker %d", m.ID))
}

// truncate bounds a preview to max runes so multi-byte text is never
// cut mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func formatCreatedAt(millis int64) string {
	return time.UnixMilli(millis).Format("2006-01-02 15:04")
}
