// internal/store/sqlite/sqlite.go
package sqlite

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"planmark/internal/database"
	"planmark/internal/model"
	"planmark/pkg/core"
)

// defaultDumpInterval is how often the in-memory database is vacuumed
// to disk between explicit closes.
const defaultDumpInterval = 30 * time.Second

// Backend stores markers in an in-memory SQLite database that is
// dumped to disk via VACUUM INTO, periodically and on Close, and
// restored from the dump on Init. Insertion order is recovered on load
// by ordering on created_at, which is also the primary key. View state
// lives in memory only.
type Backend struct {
	path         string
	log          zerolog.Logger
	dumpInterval time.Duration

	mu        sync.RWMutex
	db        *gorm.DB
	stopChan  chan struct{}
	mode      core.ViewMode
	activeID  int64
	hasActive bool
}

// NewBackend creates a SQLite backend dumping to the given path.
// An empty path keeps the database ephemeral.
func NewBackend(path string, log zerolog.Logger) *Backend {
	return &Backend{
		path:         path,
		log:          log,
		dumpInterval: defaultDumpInterval,
		mode:         core.ModeInspect,
	}
}

// Init opens the in-memory database, migrates the schema, restores any
// previous dump, and starts the periodic dump loop.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	db, err := database.GetSqliteDB("", b.log)
	if err != nil {
		return fmt.Errorf("failed to open marker database: %w", err)
	}
	if err := database.Migrate(db, b.log); err != nil {
		return err
	}

	b.db = db
	b.mode = core.ModeInspect
	b.hasActive = false

	if b.path != "" {
		if err := b.restore(); err != nil {
			return err
		}
		b.stopChan = make(chan struct{})
		go b.dumpLoop(b.stopChan)
	}
	return nil
}

// restore loads marker rows from a previous on-disk dump. Caller must
// hold the lock.
func (b *Backend) restore() error {
	if _, err := os.Stat(b.path); err != nil {
		return nil
	}

	dumpDB, err := database.GetSqliteDB(b.path, b.log)
	if err != nil {
		return fmt.Errorf("failed to open marker dump: %w", err)
	}
	defer func() {
		if sqlDB, err := dumpDB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	var rows []model.MarkerRow
	if err := dumpDB.Order("created_at asc").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to read marker dump: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := b.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to restore markers: %w", err)
	}

	b.log.Info().Int("markers", len(rows)).Msg("Restored markers from dump")
	return nil
}

// dumpLoop periodically vacuums the in-memory database to disk.
// VACUUM INTO takes a point-in-time snapshot, so writes keep flowing.
func (b *Backend) dumpLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(b.dumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := database.DumpMemoryDBToDisk(b.db, b.path, b.log); err != nil {
				b.log.Error().Err(err).Msg("Failed to dump markers to disk")
			}
		}
	}
}

// Close dumps a final snapshot and releases the underlying connection.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	if b.stopChan != nil {
		close(b.stopChan)
		b.stopChan = nil
	}
	if b.path != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.path, b.log); err != nil {
			return fmt.Errorf("failed to dump markers on close: %w", err)
		}
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	b.db = nil
	return sqlDB.Close()
}

// AddRecord inserts a marker and makes it the active record.
func (b *Backend) AddRecord(m core.Marker) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var count int64
	if err := b.db.Model(&model.MarkerRow{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for existing marker: %w", err)
	}
	if count > 0 {
		return core.ErrDuplicateMarker
	}

	row, err := model.FromCore(m)
	if err != nil {
		return fmt.Errorf("failed to encode marker: %w", err)
	}
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert marker: %w", err)
	}

	b.activeID = m.ID
	b.hasActive = true
	return nil
}

// RemoveRecord deletes a marker by ID. Unknown IDs are a no-op.
func (b *Backend) RemoveRecord(id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := b.db.Delete(&model.MarkerRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete marker: %w", res.Error)
	}
	if res.RowsAffected > 0 && b.hasActive && b.activeID == id {
		b.hasActive = false
	}
	return nil
}

// UpdateRecord applies a patch to a marker. Unknown IDs are a no-op;
// sealed markers reject patches.
func (b *Backend) UpdateRecord(id int64, patch core.MarkerPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var row model.MarkerRow
	err := b.db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load marker: %w", err)
	}

	m, err := model.ToCore(row)
	if err != nil {
		return fmt.Errorf("failed to decode marker: %w", err)
	}
	if m.Sealed() {
		return core.ErrMarkerSealed
	}

	patch.Apply(&m)
	updated, err := model.FromCore(m)
	if err != nil {
		return fmt.Errorf("failed to encode marker: %w", err)
	}
	if err := b.db.Save(&updated).Error; err != nil {
		return fmt.Errorf("failed to update marker: %w", err)
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

	var count int64
	if err := b.db.Model(&model.MarkerRow{}).Where("id = ?", id).Count(&count).Error; err != nil || count == 0 {
		b.hasActive = false
		return
	}
	b.activeID = id
	b.hasActive = true
}

// ClearActiveRecord drops the current selection.
func (b *Backend) ClearActiveRecord() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasActive = false
}

// Records returns all markers in creation order.
func (b *Backend) Records() []core.Marker {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var rows []model.MarkerRow
	if err := b.db.Order("created_at asc").Find(&rows).Error; err != nil {
		b.log.Error().Err(err).Msg("Failed to list markers")
		return nil
	}

	markers := make([]core.Marker, 0, len(rows))
	for _, row := range rows {
		m, err := model.ToCore(row)
		if err != nil {
			b.log.Error().Err(err).Int64("id", row.ID).Msg("Failed to decode marker")
			continue
		}
		markers = append(markers, m)
	}
	return markers
}

// Record returns the marker with the given ID.
func (b *Backend) Record(id int64) (core.Marker, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var row model.MarkerRow
	if err := b.db.First(&row, "id = ?", id).Error; err != nil {
		return core.Marker{}, false
	}
	m, err := model.ToCore(row)
	if err != nil {
		b.log.Error().Err(err).Int64("id", id).Msg("Failed to decode marker")
		return core.Marker{}, false
	}
	return m, true
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
