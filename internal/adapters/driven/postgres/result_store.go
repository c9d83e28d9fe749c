package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultStore = (*ResultStore)(nil)

// DefaultResultTTL is how long a stored result lives.
const DefaultResultTTL = 24 * time.Hour

// ResultStore implements driven.ResultStore on the extraction_cache table.
// Expired rows are ignored by reads and replaced on write.
type ResultStore struct {
	db  *DB
	ttl time.Duration
}

// NewResultStore creates a new ResultStore. A zero ttl uses DefaultResultTTL.
func NewResultStore(db *DB, ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultStore{db: db, ttl: ttl}
}

// Get returns the stored result or domain.ErrNotFound.
func (s *ResultStore) Get(ctx context.Context, key string) (*domain.ExtractionResult, error) {
	query := `
		SELECT result
		FROM extraction_cache
		WHERE cache_key = $1 AND expires_at > NOW()
	`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", key, err)
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", key, err)
	}
	return &result, nil
}

// Put upserts result.
func (s *ResultStore) Put(ctx context.Context, key string, result *domain.ExtractionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", key, err)
	}

	query := `
		INSERT INTO extraction_cache (cache_key, result, content_size, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			result = EXCLUDED.result,
			content_size = EXCLUDED.content_size,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`

	now := time.Now()
	_, err = s.db.ExecContext(ctx, query, key, string(data), len(result.Content), now, now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("put result %s: %w", key, err)
	}
	return nil
}

// Clear removes all stored results.
func (s *ResultStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM extraction_cache"); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}

// Stats counts live rows and sums their content sizes.
func (s *ResultStore) Stats(ctx context.Context) (domain.CacheStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(content_size), 0)
		FROM extraction_cache
		WHERE expires_at > NOW()
	`

	var count, size int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count, &size); err != nil {
		return domain.CacheStats{}, fmt.Errorf("result stats: %w", err)
	}
	return domain.CacheStats{TotalEntries: uint64(count), TotalSizeBytes: uint64(size)}, nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *ResultStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM extraction_cache WHERE expires_at <= NOW()")
	if err != nil {
		return 0, fmt.Errorf("purge expired results: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks if the database is reachable.
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
