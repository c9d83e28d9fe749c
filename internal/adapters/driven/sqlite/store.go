// Package sqlite provides a single-file ResultStore for deployments without
// Redis or PostgreSQL.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultStore = (*ResultStore)(nil)

// DefaultResultTTL is how long a stored result lives.
const DefaultResultTTL = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS extraction_cache (
	cache_key    TEXT PRIMARY KEY,
	result       BLOB NOT NULL,
	content_size INTEGER NOT NULL DEFAULT 0,
	expires_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extraction_cache_expires_at ON extraction_cache (expires_at);
`

// ResultStore implements driven.ResultStore on an embedded SQLite database.
type ResultStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, ttl time.Duration) (*ResultStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultStore{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the stored result or domain.ErrNotFound.
func (s *ResultStore) Get(ctx context.Context, key string) (*domain.ExtractionResult, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT result FROM extraction_cache WHERE cache_key = ? AND expires_at > ?",
		key, s.now().UnixNano(),
	).Scan(&data)
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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extraction_cache (cache_key, result, content_size, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			result = excluded.result,
			content_size = excluded.content_size,
			expires_at = excluded.expires_at
	`, key, data, len(result.Content), s.now().Add(s.ttl).UnixNano())
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
	var count, size int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(content_size), 0) FROM extraction_cache WHERE expires_at > ?",
		s.now().UnixNano(),
	).Scan(&count, &size)
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("result stats: %w", err)
	}
	return domain.CacheStats{TotalEntries: uint64(count), TotalSizeBytes: uint64(size)}, nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *ResultStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM extraction_cache WHERE expires_at <= ?", s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge expired results: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks if the database is reachable.
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
