// internal/store/memory/memory.go
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"planmark/pkg/core"
)

// persistedState is the JSON document written to disk. Only the marker
// list is durable; view mode and selection reset on every launch.
type persistedState struct {
	Markers []core.Marker `json:"markers"`
}

// Backend stores markers in memory and mirrors them to a JSON file
// after every mutation.
type Backend struct {
	path string
	log  zerolog.Logger

	mu        sync.RWMutex
	markers   []core.Marker
	mode      core.ViewMode
	activeID  int64
	hasActive bool
}

// NewBackend creates a memory backend persisting to the given path.
// An empty path disables persistence entirely.
func NewBackend(path string, log zerolog.Logger) *Backend {
	return &Backend{
		path: path,
		log:  log,
		mode: core.ModeInspect,
	}
}

// Init loads any previously persisted markers.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mode = core.ModeInspect
	b.hasActive = false

	if b.path == "" {
		return nil
	}

	raw, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read marker store: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return fmt.Errorf("failed to parse marker store: %w", err)
	}
	b.markers = state.Markers

	b.log.Info().Int("markers", len(b.markers)).Str("path", b.path).Msg("Loaded marker store")
	return nil
}

// Close persists the current state one final time.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.save()
}

// save writes the current marker list to disk. Caller must hold the lock.
func (b *Backend) save() error {
	if b.path == "" {
		return nil
	}

	state := persistedState{Markers: b.markers}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode marker store: %w", err)
	}

	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	if err := os.WriteFile(b.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write marker store: %w", err)
	}
	return nil
}

// AddRecord appends a marker and makes it the active record.
func (b *Backend) AddRecord(m core.Marker) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.markers {
		if existing.ID == m.ID {
			return core.ErrDuplicateMarker
		}
	}

	b.markers = append(b.markers, m)
	b.activeID = m.ID
	b.hasActive = true
	return b.save()
}

// RemoveRecord deletes a marker by ID. Unknown IDs are a no-op.
func (b *Backend) RemoveRecord(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, m := range b.markers {
		if m.ID == id {
			b.markers = append(b.markers[:i], b.markers[i+1:]...)
			if b.hasActive && b.activeID == id {
				b.hasActive = false
			}
			return b.save()
		}
	}
	return nil
}

// UpdateRecord applies a patch to a marker. Unknown IDs are a no-op;
// sealed markers reject patches.
func (b *Backend) UpdateRecord(id int64, patch core.MarkerPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.markers {
		if b.markers[i].ID == id {
			if b.markers[i].Sealed() {
				return core.ErrMarkerSealed
			}
			patch.Apply(&b.markers[i])
			return b.save()
		}
	}
	return nil
}

// SetMode switches the view mode. Not persisted.
func (b *Backend) SetMode(mode core.ViewMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
}

// SetActiveRecord selects a marker. An unknown ID clears the selection.
func (b *Backend) SetActiveRecord(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range b.markers {
		if m.ID == id {
			b.activeID = id
			b.hasActive = true
			return
		}
	}
	b.hasActive = false
}

// ClearActiveRecord drops the current selection.
func (b *Backend) ClearActiveRecord() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasActive = false
}

// Records returns all markers in insertion order.
func (b *Backend) Records() []core.Marker {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Marker, len(b.markers))
	copy(out, b.markers)
	return out
}

// Record returns the marker with the given ID.
func (b *Backend) Record(id int64) (core.Marker, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, m := range b.markers {
		if m.ID == id {
			return m, true
		}
	}
	return core.Marker{}, false
}

// Mode returns the current view mode.
func (b *Backend) Mode() core.ViewMode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mode
}

// ActiveRecordID returns the selected marker ID, if any.
func (b *Backend) ActiveRecordID() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.activeID, b.hasActive
}
