package database

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"planmark/internal/model"
)

// memDBSeq names in-memory databases so each caller gets its own.
// Shared cache keeps the pooled connections on one database without
// sharing it across backends.
var memDBSeq atomic.Int64

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func GetSqliteDB(path string, log zerolog.Logger) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if path != "" {
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("Using local SQLite DB")
	} else {
		dsn := fmt.Sprintf("file:planmark_mem_%d?mode=memory&cache=shared", memDBSeq.Add(1))
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Using in-memory SQLite DB")
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}

// Migrate creates or updates the schema for all marker tables.
func Migrate(db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("Migrating schema")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %s", err)
	}
	return nil
}

// DumpMemoryDBToDisk vacuums an in-memory database to a file, replacing
// any existing file at that path.
func DumpMemoryDBToDisk(db *gorm.DB, path string, log zerolog.Logger) error {
	if path == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	if exists, err := os.Stat(path); err == nil && exists != nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing DB file: %s", err)
		}
	}

	start := time.Now()
	err := db.Exec("VACUUM INTO 'file:" + path + "';").Error
	if err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %s", err)
	}

	log.Debug().Dur("duration", time.Since(start)).Msg("Dumped memory DB to disk")
	return nil
}
