package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/motifscan/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleScan(id string) *models.ScanResult {
	return &models.ScanResult{
		ID:         id,
		Name:       "sample.fa",
		Accessions: []string{"zeta", "alpha"},
		Records: []models.MotifRecord{
			{Accession: "zeta", Start: 4, End: 7, Name: "P", Score: 0.9, Strand: "+", Motif: "WWW"},
			{Accession: "alpha", Start: 0, End: 3, Name: "E1", Score: 0.8, Strand: "+", Motif: "AAA"},
			{Accession: "alpha", Start: 3, End: 6, Name: "P", Score: 0.95, Strand: "+", Motif: "GGG"},
		},
		Stats:      models.ScanStats{Sequences: 2, Windows: 8, EncodedWindows: 8, Motifs: 3},
		DurationMs: 12,
	}
}

func TestSQLiteStorage_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	scan := sampleScan("s1")
	if err := store.SaveScan(ctx, scan); err != nil {
		t.Fatal(err)
	}
	if scan.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetScan(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "sample.fa" || got.Stats != scan.Stats || got.DurationMs != 12 {
		t.Errorf("got %+v", got)
	}
	if len(got.Accessions) != 2 || got.Accessions[0] != "zeta" {
		t.Errorf("accessions = %v", got.Accessions)
	}
	if len(got.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got.Records))
	}
	for i := range scan.Records {
		if got.Records[i] != scan.Records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got.Records[i], scan.Records[i])
		}
	}
}

func TestSQLiteStorage_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveScan(ctx, sampleScan("s1")); err != nil {
		t.Fatal(err)
	}
	replacement := &models.ScanResult{ID: "s1", Accessions: []string{"only"}}
	if err := store.SaveScan(ctx, replacement); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetScan(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Records) != 0 || len(got.Accessions) != 1 {
		t.Errorf("expected replaced scan, got %+v", got)
	}
	n, _ := store.CountMotifs(ctx)
	if n != 0 {
		t.Errorf("expected stale records removed, got %d", n)
	}
}

func TestSQLiteStorage_ListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := sampleScan("old")
	older.CreatedAt = time.Now().Add(-time.Hour)
	if err := store.SaveScan(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveScan(ctx, sampleScan("new")); err != nil {
		t.Fatal(err)
	}

	list, err := store.ListScans(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Motifs != 3 || list[0].Sequences != 2 {
		t.Errorf("summary = %+v", list[0])
	}

	page, _ := store.ListScans(ctx, 1, 10)
	if len(page) != 1 || page[0].ID != "old" {
		t.Errorf("offset page = %+v", page)
	}

	if err := store.DeleteScan(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetScan(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteScan(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.CountScans(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountScans: %v, %d", err, n)
	}
	_ = store.SaveScan(ctx, sampleScan("x"))
	n, _ = store.CountScans(ctx)
	if n != 1 {
		t.Errorf("expected 1 scan, got %d", n)
	}
	m, _ := store.CountMotifs(ctx)
	if m != 3 {
		t.Errorf("expected 3 motifs, got %d", m)
	}
}

func TestSQLiteStorage_SaveRequiresID(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveScan(context.Background(), &models.ScanResult{}); err == nil {
		t.Error("expected error for empty id")
	}
}
