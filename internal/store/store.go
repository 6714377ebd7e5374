// Package store defines the marker record store and its backends.
package store

import (
	"fmt"

	"github.com/rs/zerolog"

	"planmark/internal/config"
	"planmark/internal/store/memory"
	"planmark/internal/store/sqlite"
	"planmark/pkg/core"
)

// Store is the single collection of saved defect markers plus the
// session view state (mode and active selection). View state is never
// persisted; only markers survive a restart.
type Store interface {
	// Init loads persisted markers and prepares the backend.
	Init() error
	// Close flushes and releases the backend.
	Close() error

	// AddRecord appends a marker, keeps insertion order, and makes it
	// the active record. Duplicate IDs are rejected with
	// core.ErrDuplicateMarker.
	AddRecord(m core.Marker) error
	// RemoveRecord deletes the marker with the given ID. Removing an
	// unknown ID is a no-op.
	RemoveRecord(id int64) error
	// UpdateRecord applies a patch to the marker with the given ID.
	// Unknown IDs are a no-op. Markers carrying analysis metrics are
	// sealed and reject patches with core.ErrMarkerSealed.
	UpdateRecord(id int64, patch core.MarkerPatch) error

	// SetMode switches between inspect and review views.
	SetMode(mode core.ViewMode)
	// SetActiveRecord selects a marker for detail display. An unknown
	// ID clears the selection.
	SetActiveRecord(id int64)
	// ClearActiveRecord drops the current selection.
	ClearActiveRecord()

	Records() []core.Marker
	Record(id int64) (core.Marker, bool)
	Mode() core.ViewMode
	ActiveRecordID() (int64, bool)
}

// NewStore builds the configured store backend.
func NewStore(cfg config.StorageConfig, log zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.NewBackend(cfg.Memory.Path, log), nil
	case "sqlite":
		return sqlite.NewBackend(cfg.Sqlite.Path, log), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
