package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/washtower/zeo-core/internal/infrastructure/database"
	_ "github.com/washtower/zeo-core/migrations"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func TestRecordAndGetHistory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	values := []struct {
		attribute string
		value     any
	}{
		{"state", "washing"},
		{"countdown", float64(1800)},
		{"sound_set", true},
	}
	for _, v := range values {
		if err := repo.RecordAttribute(ctx, "zeo-01", v.attribute, v.value, SourcePoll); err != nil {
			t.Fatalf("RecordAttribute(%s) failed: %v", v.attribute, err)
		}
	}

	entries, err := repo.GetHistory(ctx, "zeo-01", "", 10)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("GetHistory returned %d entries, want 3", len(entries))
	}

	// Newest first.
	if entries[0].Attribute != "sound_set" {
		t.Errorf("entries[0].Attribute = %q, want \"sound_set\"", entries[0].Attribute)
	}
	if entries[0].Value != true {
		t.Errorf("entries[0].Value = %v (%T), want true", entries[0].Value, entries[0].Value)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("entries[0].CreatedAt is zero")
	}
}

func TestGetHistory_AttributeFilter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttribute(ctx, "zeo-01", "state", "idle", SourcePoll); err != nil {
			t.Fatalf("RecordAttribute failed: %v", err)
		}
	}
	if err := repo.RecordAttribute(ctx, "zeo-01", "countdown", 60, SourceQuery); err != nil {
		t.Fatalf("RecordAttribute failed: %v", err)
	}

	entries, err := repo.GetHistory(ctx, "zeo-01", "state", 10)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("GetHistory(state) returned %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Attribute != "state" {
			t.Errorf("filtered history contains attribute %q", e.Attribute)
		}
	}
}

func TestGetHistory_DeviceIsolation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.RecordAttribute(ctx, "zeo-01", "state", "idle", SourcePoll); err != nil {
		t.Fatalf("RecordAttribute failed: %v", err)
	}
	if err := repo.RecordAttribute(ctx, "zeo-02", "state", "washing", SourcePoll); err != nil {
		t.Fatalf("RecordAttribute failed: %v", err)
	}

	entries, err := repo.GetHistory(ctx, "zeo-01", "", 10)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "idle" {
		t.Errorf("GetHistory(zeo-01) = %v, want only zeo-01's entry", entries)
	}
}

func TestGetHistory_LimitClamped(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.GetHistory(ctx, "zeo-01", "", 5000); err != nil {
		t.Fatalf("GetHistory with oversized limit failed: %v", err)
	}
	if _, err := repo.GetHistory(ctx, "zeo-01", "", -1); err != nil {
		t.Fatalf("GetHistory with negative limit failed: %v", err)
	}
}

func TestRecordAttribute_Validation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.RecordAttribute(ctx, "", "state", "idle", SourcePoll); err == nil {
		t.Error("RecordAttribute with empty duid succeeded")
	}
	if err := repo.RecordAttribute(ctx, "zeo-01", "", "idle", SourcePoll); err == nil {
		t.Error("RecordAttribute with empty attribute succeeded")
	}
}

func TestPrune(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.RecordAttribute(ctx, "zeo-01", "state", "idle", SourcePoll); err != nil {
		t.Fatalf("RecordAttribute failed: %v", err)
	}

	// Fresh rows survive a retention window.
	deleted, err := repo.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Prune deleted %d fresh rows, want 0", deleted)
	}

	if _, err := repo.Prune(ctx, 0); err == nil {
		t.Error("Prune with zero retention succeeded")
	}
}
