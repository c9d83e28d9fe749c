package driven

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// ResultStore persists cached extraction results outside the process
// (Redis, PostgreSQL or SQLite). Keys are content hashes.
type ResultStore interface {
	// Get returns the stored result or domain.ErrNotFound.
	Get(ctx context.Context, key string) (*domain.ExtractionResult, error)

	// Put stores a completed result, replacing any previous value.
	Put(ctx context.Context, key string, result *domain.ExtractionResult) error

	// Clear removes all stored results.
	Clear(ctx context.Context) error

	// Stats returns the entry count and the sum of stored content lengths.
	Stats(ctx context.Context) (domain.CacheStats, error)

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error
}
