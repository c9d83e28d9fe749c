package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

func openTestStore(t *testing.T) *ResultStore {
	t.Helper()
	store, err := Open(context.Background(), ":memory:", time.Hour)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResultStore_PutGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	result := &domain.ExtractionResult{
		Content:  "# Title",
		MimeType: "text/markdown",
		Tables:   []domain.Table{{Cells: [][]string{{"a", "b"}}, Markdown: "| a | b |"}},
	}
	if err := store.Put(ctx, "k1", result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "# Title" || got.MimeType != "text/markdown" {
		t.Errorf("unexpected result: %+v", got)
	}
	if len(got.Tables) != 1 || got.Tables[0].Cells[0][1] != "b" {
		t.Errorf("expected table to round trip, got %+v", got.Tables)
	}
}

func TestResultStore_PutReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_ = store.Put(ctx, "k1", &domain.ExtractionResult{Content: "old"})
	_ = store.Put(ctx, "k1", &domain.ExtractionResult{Content: "newer"})

	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "newer" {
		t.Errorf("expected replaced content, got %q", got.Content)
	}
	stats, _ := store.Stats(ctx)
	if stats.TotalEntries != 1 || stats.TotalSizeBytes != 5 {
		t.Errorf("expected 1 entry of 5 bytes, got %+v", stats)
	}
}

func TestResultStore_GetMissing(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResultStore_Expiry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	_ = store.Put(ctx, "k1", &domain.ExtractionResult{Content: "x"})
	now = now.Add(2 * time.Hour)

	if _, err := store.Get(ctx, "k1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected expired result to be hidden, got %v", err)
	}
	stats, _ := store.Stats(ctx)
	if stats.TotalEntries != 0 {
		t.Errorf("expected expired row to be excluded from stats, got %+v", stats)
	}

	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged row, got %d", purged)
	}
}

func TestResultStore_Clear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_ = store.Put(ctx, "a", &domain.ExtractionResult{Content: "1"})
	_ = store.Put(ctx, "b", &domain.ExtractionResult{Content: "22"})

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEntries != 0 || stats.TotalSizeBytes != 0 {
		t.Errorf("expected empty store, got %+v", stats)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
