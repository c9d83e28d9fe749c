// Package cache is the content-addressed extraction result cache.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

const (
	defaultLockTTL  = 2 * time.Minute
	defaultLockPoll = 250 * time.Millisecond
)

// ComputeFunc builds the result for a cache miss.
type ComputeFunc func(ctx context.Context) (*domain.ExtractionResult, error)

// Options configures a Cache. Store and Lock are optional.
type Options struct {
	// Store is a shared second-level cache read on local misses and
	// written after every successful computation.
	Store driven.ResultStore
	// Lock serializes builds of one key across instances.
	Lock     driven.DistributedLock
	LockTTL  time.Duration
	LockPoll time.Duration
	Logger   *slog.Logger
}

// Cache holds completed extraction results by key. Concurrent callers for
// the same key share a single computation; unrelated keys never block each
// other.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*domain.ExtractionResult
	group   singleflight.Group

	store    driven.ResultStore
	lock     driven.DistributedLock
	lockTTL  time.Duration
	lockPoll time.Duration
	logger   *slog.Logger
}

// New creates an empty cache.
func New(opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		entries:  make(map[string]*domain.ExtractionResult),
		store:    opts.Store,
		lock:     opts.Lock,
		lockTTL:  opts.LockTTL,
		lockPoll: opts.LockPoll,
		logger:   logger.With("component", "cache"),
	}
	if c.lockTTL <= 0 {
		c.lockTTL = defaultLockTTL
	}
	if c.lockPoll <= 0 {
		c.lockPoll = defaultLockPoll
	}
	return c
}

// Key hashes document bytes, resolved MIME type and the effective
// configuration. use_cache does not affect the key.
func Key(data []byte, mimeType string, cfg *domain.ExtractionConfig) (string, error) {
	if cfg == nil {
		cfg = domain.DefaultExtractionConfig()
	}
	effective := cfg.Clone()
	effective.UseCache = true
	cfgJSON, err := json.Marshal(effective)
	if err != nil {
		return "", domain.NewCacheError("encode config for cache key", err)
	}

	h, _ := blake2b.New256(nil)
	for _, part := range [][]byte{data, []byte(mimeType), cfgJSON} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns a copy of the locally cached result for key.
func (c *Cache) Get(key string) (*domain.ExtractionResult, bool) {
	c.mu.RLock()
	r, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// GetOrCompute returns the cached result for key, computing it with fn on a
// miss. hit reports whether fn was skipped. Failed or cancelled computations
// are never stored.
func (c *Cache) GetOrCompute(ctx context.Context, key string, fn ComputeFunc) (result *domain.ExtractionResult, hit bool, err error) {
	if r, ok := c.Get(key); ok {
		return r, true, nil
	}

	for {
		ch := c.group.DoChan(key, func() (any, error) {
			return c.build(ctx, key, fn)
		})

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The leader was cancelled but this caller was not: retry as leader.
				if isContextErr(res.Err) && ctx.Err() == nil {
					continue
				}
				return nil, false, res.Err
			}
			b := res.Val.(built)
			return b.result.Clone(), b.hit, nil
		}
	}
}

type built struct {
	result *domain.ExtractionResult
	hit    bool
}

func (c *Cache) build(ctx context.Context, key string, fn ComputeFunc) (built, error) {
	if r, ok := c.Get(key); ok {
		return built{result: r, hit: true}, nil
	}
	if r, ok := c.load(ctx, key); ok {
		c.put(key, r)
		return built{result: r, hit: true}, nil
	}

	if c.lock != nil {
		release, r, err := c.acquire(ctx, key)
		if err != nil {
			return built{}, err
		}
		if r != nil {
			c.put(key, r)
			return built{result: r, hit: true}, nil
		}
		defer release()
	}

	r, err := c.compute(ctx, fn)
	if err != nil {
		return built{}, err
	}
	if err := ctx.Err(); err != nil {
		return built{}, err
	}
	if r == nil {
		return built{}, domain.NewCacheError("computation returned no result", nil)
	}

	c.put(key, r)
	c.save(ctx, key, r)
	return built{result: r}, nil
}

func (c *Cache) compute(ctx context.Context, fn ComputeFunc) (r *domain.ExtractionResult, err error) {
	defer domain.Recover(&err)
	return fn(ctx)
}

// acquire takes the build lock for key. While another instance holds it the
// store is polled; a result published meanwhile is returned instead. When the
// lock backend fails or the wait exceeds the lock TTL the build proceeds
// unlocked.
func (c *Cache) acquire(ctx context.Context, key string) (func(), *domain.ExtractionResult, error) {
	name := "extract:" + key
	noop := func() {}
	deadline := time.Now().Add(c.lockTTL)

	for {
		acquired, err := c.lock.Acquire(ctx, name, c.lockTTL)
		if err != nil {
			if isContextErr(err) {
				return nil, nil, err
			}
			c.logger.Warn("failed to acquire cache lock", "cache_key", key, "error", err)
			return noop, nil, nil
		}
		if acquired {
			return func() {
				if err := c.lock.Release(context.WithoutCancel(ctx), name); err != nil {
					c.logger.Warn("failed to release cache lock", "cache_key", key, "error", err)
				}
			}, nil, nil
		}

		c.logger.Debug("cache lock held by another instance, waiting", "cache_key", key)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(c.lockPoll):
		}
		if r, ok := c.load(ctx, key); ok {
			return noop, r, nil
		}
		if time.Now().After(deadline) {
			c.logger.Warn("cache lock wait timed out, building anyway", "cache_key", key)
			return noop, nil, nil
		}
	}
}

func (c *Cache) load(ctx context.Context, key string) (*domain.ExtractionResult, bool) {
	if c.store == nil {
		return nil, false
	}
	r, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("result store read failed", "cache_key", key, "error", err)
		}
		return nil, false
	}
	return r, r != nil
}

func (c *Cache) save(ctx context.Context, key string, r *domain.ExtractionResult) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, key, r); err != nil {
		c.logger.Warn("result store write failed", "cache_key", key, "error", err)
	}
}

func (c *Cache) put(key string, r *domain.ExtractionResult) {
	c.mu.Lock()
	c.entries[key] = r.Clone()
	c.mu.Unlock()
}

// Stats reports the local entry count and the summed content length.
func (c *Cache) Stats() domain.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := domain.CacheStats{TotalEntries: uint64(len(c.entries))}
	for _, r := range c.entries {
		stats.TotalSizeBytes += uint64(len(r.Content))
	}
	return stats
}

// Clear removes every local entry and clears the result store.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*domain.ExtractionResult)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			return domain.NewCacheError("clear result store", err)
		}
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

