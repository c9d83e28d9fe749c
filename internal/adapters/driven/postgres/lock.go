package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL advisory locks.
//
// Advisory locks are session scoped: they have no TTL and are released when
// the holding connection closes. Each held lock pins one pooled connection
// until Release. Use the Redis lock when builds must expire on their own.
type AdvisoryLock struct {
	db *DB

	mu   sync.Mutex
	held map[string]*sql.Conn
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db, held: make(map[string]*sql.Conn)}
}

// hashLockName maps a lock name to the 64-bit advisory lock key space.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("sercha:extract:lock:" + name))
	return int64(h.Sum64())
}

// Acquire tries the lock without blocking. ttl is ignored.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[name]; ok {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire advisory lock %s: %w", name, err)
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(name)).Scan(&acquired)
	if err != nil || !acquired {
		conn.Close()
		if err != nil {
			return false, fmt.Errorf("acquire advisory lock %s: %w", name, err)
		}
		return false, nil
	}

	l.held[name] = conn
	return true, nil
}

// Release unlocks name on the connection that holds it. Releasing a lock
// that is not held is not an error.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	defer conn.Close()

	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(name)).Scan(&released)
	if err != nil {
		return fmt.Errorf("release advisory lock %s: %w", name, err)
	}
	return nil
}

// Extend is a no-op; advisory locks do not expire.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
