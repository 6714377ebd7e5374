package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"planmark/internal/config"
	"planmark/pkg/core"
)

func TestNewStore_MemoryBackend(t *testing.T) {
	cfg := config.StorageConfig{
		Backend: "memory",
		Memory:  config.MemoryConfig{Path: filepath.Join(t.TempDir(), "records.json")},
	}

	s, err := NewStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.AddRecord(core.Marker{ID: 1, CreatedAt: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(s.Records()) != 1 {
		t.Error("expected one record")
	}
}

func TestNewStore_SqliteBackend(t *testing.T) {
	cfg := config.StorageConfig{
		Backend: "sqlite",
		Sqlite:  config.SqliteConfig{Path: filepath.Join(t.TempDir(), "records.db")},
	}

	s, err := NewStore(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.AddRecord(core.Marker{ID: 1, CreatedAt: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, ok := s.Record(1); !ok {
		t.Error("expected record retrievable")
	}
}

func TestNewStore_UnknownBackend(t *testing.T) {
	if _, err := NewStore(config.StorageConfig{Backend: "redis"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
