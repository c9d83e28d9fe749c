package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

func TestResultStore_PutGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewResultStore(client, time.Hour)
	ctx := context.Background()

	result := &domain.ExtractionResult{
		Content:           "hello world",
		MimeType:          "text/plain",
		DetectedLanguages: []string{"eng"},
	}
	if err := store.Put(ctx, "abc", result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "hello world" || got.MimeType != "text/plain" {
		t.Errorf("unexpected result: %+v", got)
	}
	if len(got.DetectedLanguages) != 1 || got.DetectedLanguages[0] != "eng" {
		t.Errorf("expected languages to round trip, got %v", got.DetectedLanguages)
	}
	if ttl := mr.TTL(resultPrefix + "abc"); ttl != time.Hour {
		t.Errorf("expected ttl of 1h, got %v", ttl)
	}
}

func TestResultStore_GetMissing(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewResultStore(client, 0)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResultStore_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewResultStore(client, time.Minute)
	ctx := context.Background()

	_ = store.Put(ctx, "abc", &domain.ExtractionResult{Content: "x"})
	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "abc"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected expired result to be gone, got %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEntries != 0 {
		t.Errorf("expected no entries after expiry, got %d", stats.TotalEntries)
	}
}

func TestResultStore_StatsAndClear(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewResultStore(client, time.Hour)
	ctx := context.Background()

	_ = store.Put(ctx, "a", &domain.ExtractionResult{Content: "12345"})
	_ = store.Put(ctx, "b", &domain.ExtractionResult{Content: "123"})
	// unrelated keys are left alone
	_ = mr.Set("other", "value")

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalEntries != 2 || stats.TotalSizeBytes != 8 {
		t.Errorf("expected 2 entries of 8 bytes, got %+v", stats)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats, _ = store.Stats(ctx)
	if stats.TotalEntries != 0 {
		t.Errorf("expected empty store, got %+v", stats)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected cleared result to be gone, got %v", err)
	}
	if !mr.Exists("other") {
		t.Error("clear removed an unrelated key")
	}
}

func TestResultStore_Ping(t *testing.T) {
	client, _ := setupTestRedis(t)
	if err := NewResultStore(client, 0).Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
