package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultStore = (*ResultStore)(nil)

const (
	keyPrefix    = "sercha:extract:"
	resultPrefix = keyPrefix + "result:"
	sizePrefix   = keyPrefix + "size:"

	// DefaultResultTTL is how long a stored result lives.
	DefaultResultTTL = 24 * time.Hour

	scanBatch = 500
)

// ResultStore keeps extraction results as JSON values. A sibling size key
// holds the content length so Stats never has to decode results.
type ResultStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewResultStore creates a Redis-backed result store. A zero ttl uses
// DefaultResultTTL.
func NewResultStore(client redis.UniversalClient, ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultStore{client: client, ttl: ttl}
}

// Get returns the stored result or domain.ErrNotFound.
func (s *ResultStore) Get(ctx context.Context, key string) (*domain.ExtractionResult, error) {
	data, err := s.client.Get(ctx, resultPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get result %s: %w", key, err)
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", key, err)
	}
	return &result, nil
}

// Put stores result and its size key in one round trip.
func (s *ResultStore) Put(ctx context.Context, key string, result *domain.ExtractionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", key, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resultPrefix+key, data, s.ttl)
		pipe.Set(ctx, sizePrefix+key, len(result.Content), s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put result %s: %w", key, err)
	}
	return nil
}

// Clear removes every result and size key.
func (s *ResultStore) Clear(ctx context.Context) error {
	for _, pattern := range []string{resultPrefix + "*", sizePrefix + "*"} {
		err := s.scan(ctx, pattern, func(keys []string) error {
			return s.client.Del(ctx, keys...).Err()
		})
		if err != nil {
			return fmt.Errorf("clear results: %w", err)
		}
	}
	return nil
}

// Stats counts size keys and sums their values.
func (s *ResultStore) Stats(ctx context.Context) (domain.CacheStats, error) {
	var stats domain.CacheStats
	err := s.scan(ctx, sizePrefix+"*", func(keys []string) error {
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		for _, v := range values {
			str, ok := v.(string)
			if !ok {
				// expired between SCAN and MGET
				continue
			}
			size, err := strconv.ParseUint(str, 10, 64)
			if err != nil {
				continue
			}
			stats.TotalEntries++
			stats.TotalSizeBytes += size
		}
		return nil
	})
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("result stats: %w", err)
	}
	return stats, nil
}

// Ping checks if Redis is reachable.
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// scan walks keys matching pattern in batches.
func (s *ResultStore) scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
