package memory

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"planmark/pkg/core"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend("", zerolog.Nop())
	if err := b.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return b
}

func marker(id int64) core.Marker {
	return core.Marker{ID: id, X: float64(id), Y: float64(id), CreatedAt: id}
}

func TestAddRecord_PreservesInsertionOrder(t *testing.T) {
	b := newTestBackend(t)

	for _, id := range []int64{3, 1, 2} {
		if err := b.AddRecord(marker(id)); err != nil {
			t.Fatalf("add %d failed: %v", id, err)
		}
	}

	records := b.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	want := []int64{3, 1, 2}
	for i, id := range want {
		if records[i].ID != id {
			t.Errorf("position %d: expected ID %d, got %d", i, id, records[i].ID)
		}
	}
}

func TestAddRecord_DuplicateID(t *testing.T) {
	b := newTestBackend(t)

	if err := b.AddRecord(marker(1)); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := b.AddRecord(marker(1)); !errors.Is(err, core.ErrDuplicateMarker) {
		t.Errorf("expected ErrDuplicateMarker, got %v", err)
	}
	if len(b.Records()) != 1 {
		t.Errorf("duplicate add must not grow the store")
	}
}

func TestAddRecord_SetsActive(t *testing.T) {
	b := newTestBackend(t)

	if err := b.AddRecord(marker(42)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	id, ok := b.ActiveRecordID()
	if !ok {
		t.Fatal("expected an active record after add")
	}
	if id != 42 {
		t.Errorf("expected active ID 42, got %d", id)
	}
}

func TestRemoveRecord_UnknownIDIsNoop(t *testing.T) {
	b := newTestBackend(t)
	if err := b.AddRecord(marker(1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := b.RemoveRecord(999); err != nil {
		t.Errorf("remove of unknown ID must not error, got %v", err)
	}
	if len(b.Records()) != 1 {
		t.Errorf("expected record to survive")
	}
}

func TestRemoveRecord_ClearsActiveSelection(t *testing.T) {
	b := newTestBackend(t)
	if err := b.AddRecord(marker(7)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := b.RemoveRecord(7); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok := b.ActiveRecordID(); ok {
		t.Error("expected selection cleared after removing active record")
	}
}

func TestUpdateRecord_SealedMarkerRejected(t *testing.T) {
	b := newTestBackend(t)
	sealed := marker(1)
	sealed.Metrics = core.Metrics{"width": 0.3}
	if err := b.AddRecord(sealed); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	text := "changed"
	err := b.UpdateRecord(1, core.MarkerPatch{TextValue: &text})
	if !errors.Is(err, core.ErrMarkerSealed) {
		t.Errorf("expected ErrMarkerSealed, got %v", err)
	}

	m, _ := b.Record(1)
	if m.TextValue != "" {
		t.Errorf("sealed marker text must be unchanged, got %q", m.TextValue)
	}
}

func TestUpdateRecord_AppliesPatch(t *testing.T) {
	b := newTestBackend(t)
	if err := b.AddRecord(marker(1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	text := "spalling at base"
	if err := b.UpdateRecord(1, core.MarkerPatch{TextValue: &text}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	m, _ := b.Record(1)
	if m.TextValue != "spalling at base" {
		t.Errorf("expected patched text, got %q", m.TextValue)
	}
}

func TestSetActiveRecord_UnknownIDClearsSelection(t *testing.T) {
	b := newTestBackend(t)
	if err := b.AddRecord(marker(1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	b.SetActiveRecord(999)
	if _, ok := b.ActiveRecordID(); ok {
		t.Error("unknown ID must clear the selection")
	}
}

func TestPersistence_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")

	b := NewBackend(path, zerolog.Nop())
	if err := b.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	m := marker(1)
	m.DefectType = "LEAKAGE"
	m.Metrics = core.Metrics{"width": 1.5, "length": 20}
	if err := b.AddRecord(m); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	b.SetMode(core.ModeReview)
	if err := b.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened := NewBackend(path, zerolog.Nop())
	if err := reopened.Init(); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	records := reopened.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record after reload, got %d", len(records))
	}
	if records[0].DefectType != "LEAKAGE" {
		t.Errorf("expected LEAKAGE, got %s", records[0].DefectType)
	}
	if records[0].Metrics["length"] != 20 {
		t.Errorf("expected length=20, got %f", records[0].Metrics["length"])
	}

	// View state is session-only
	if reopened.Mode() != core.ModeInspect {
		t.Error("view mode must reset to inspect on reload")
	}
	if _, ok := reopened.ActiveRecordID(); ok {
		t.Error("selection must not survive a reload")
	}
}
