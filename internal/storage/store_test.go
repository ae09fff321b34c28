package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"ecoscape/internal/model"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "ecoscape.db")),
	}
}

func landscapeRecord(name string, replicate int) model.LandscapeRecord {
	return model.LandscapeRecord{
		VersionedRecord: Stamp(),
		Name:            name,
		Replicate:       replicate,
		Loci:            2,
		Resources:       1,
		Seed:            7,
		Values:          []float64{0.1, 0.2, 0.3, 0.4},
	}
}

func TestStoreLandscapes(t *testing.T) {
	for kind, store := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			defer CloseIfSupported(store)

			if _, ok, err := store.GetLandscape(ctx, "fam", 0); err != nil || ok {
				t.Fatalf("empty store: ok=%v err=%v", ok, err)
			}

			for _, rep := range []int{2, 0, 1} {
				if err := store.SaveLandscape(ctx, landscapeRecord("fam", rep)); err != nil {
					t.Fatalf("save replicate %d: %v", rep, err)
				}
			}
			if err := store.SaveLandscape(ctx, landscapeRecord("other", 0)); err != nil {
				t.Fatalf("save other family: %v", err)
			}

			record, ok, err := store.GetLandscape(ctx, "fam", 1)
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if !reflect.DeepEqual(record, landscapeRecord("fam", 1)) {
				t.Fatalf("record mismatch: %+v", record)
			}

			records, err := store.ListLandscapes(ctx, "fam")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(records) != 3 {
				t.Fatalf("got %d records, want 3", len(records))
			}
			for i, record := range records {
				if record.Replicate != i {
					t.Fatalf("records not ordered by replicate: %+v", records)
				}
			}

			// Saving the same replicate again overwrites.
			updated := landscapeRecord("fam", 1)
			updated.Seed = 1234
			if err := store.SaveLandscape(ctx, updated); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			record, _, err = store.GetLandscape(ctx, "fam", 1)
			if err != nil || record.Seed != 1234 {
				t.Fatalf("after overwrite: seed=%d err=%v", record.Seed, err)
			}
		})
	}
}

func TestStoreRunSummaries(t *testing.T) {
	for kind, store := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			defer CloseIfSupported(store)

			times := []string{
				"2026-01-01T00:00:00Z",
				"2026-01-03T00:00:00Z",
				"2026-01-02T00:00:00Z",
			}
			for i, ts := range times {
				summary := model.RunSummary{
					VersionedRecord: Stamp(),
					RunID:           string(rune('a' + i)),
					CreatedAtUTC:    ts,
					PopulationSize:  int64(100 * (i + 1)),
				}
				if err := store.SaveRunSummary(ctx, summary); err != nil {
					t.Fatalf("save: %v", err)
				}
			}

			summaries, err := store.ListRunSummaries(ctx, 0)
			if err != nil {
				t.Fatalf("list all: %v", err)
			}
			if len(summaries) != 3 {
				t.Fatalf("got %d summaries, want 3", len(summaries))
			}
			if summaries[0].RunID != "b" || summaries[1].RunID != "c" || summaries[2].RunID != "a" {
				t.Fatalf("not ordered newest first: %+v", summaries)
			}

			limited, err := store.ListRunSummaries(ctx, 2)
			if err != nil {
				t.Fatalf("list limited: %v", err)
			}
			if len(limited) != 2 || limited[0].RunID != "b" {
				t.Fatalf("limited list = %+v", limited)
			}
		})
	}
}

func TestStoreGenerationStats(t *testing.T) {
	for kind, store := range backends(t) {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			defer CloseIfSupported(store)

			if _, ok, err := store.GetGenerationStats(ctx, "missing"); err != nil || ok {
				t.Fatalf("missing run: ok=%v err=%v", ok, err)
			}

			rows := []model.GenerationStats{
				{Generation: 1, Strains: 4, Entropy: 1.2},
				{Generation: 2, Strains: 3, Entropy: 1.0},
			}
			if err := store.SaveGenerationStats(ctx, "run-1", rows); err != nil {
				t.Fatalf("save: %v", err)
			}
			back, ok, err := store.GetGenerationStats(ctx, "run-1")
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if !reflect.DeepEqual(rows, back) {
				t.Fatalf("round trip mismatch: %+v vs %+v", back, rows)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ecoscape.db")

	store := NewSQLiteStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveLandscape(ctx, landscapeRecord("fam", 0)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := NewSQLiteStore(path)
	if err := reopened.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	record, ok, err := reopened.GetLandscape(ctx, "fam", 0)
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(record, landscapeRecord("fam", 0)) {
		t.Fatalf("record mismatch after reopen: %+v", record)
	}
}

func TestSQLiteRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "ecoscape.db"))
	if err := store.SaveLandscape(context.Background(), landscapeRecord("fam", 0)); err == nil {
		t.Fatal("save on uninitialized store should fail")
	}
}

func TestNewStore(t *testing.T) {
	if store, err := NewStore("", ""); err != nil {
		t.Fatalf("default store: %v", err)
	} else if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("default store = %T, want *MemoryStore", store)
	}
	if store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "x.db")); err != nil {
		t.Fatalf("sqlite store: %v", err)
	} else if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("sqlite store = %T, want *SQLiteStore", store)
	}
	if _, err := NewStore("bogus", ""); err == nil {
		t.Fatal("unknown backend should fail")
	}
}
