package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.ResultStore = (*MockResultStore)(nil)

// MockResultStore is an in-memory ResultStore for testing
type MockResultStore struct {
	mu      sync.RWMutex
	results map[string]*domain.ExtractionResult
	puts    int

	GetErr error
	PutErr error
}

func NewMockResultStore() *MockResultStore {
	return &MockResultStore{results: make(map[string]*domain.ExtractionResult)}
}

func (m *MockResultStore) Get(ctx context.Context, key string) (*domain.ExtractionResult, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

func (m *MockResultStore) Put(ctx context.Context, key string, result *domain.ExtractionResult) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[key] = result.Clone()
	m.puts++
	return nil
}

func (m *MockResultStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]*domain.ExtractionResult)
	return nil
}

func (m *MockResultStore) Stats(ctx context.Context) (domain.CacheStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats domain.CacheStats
	for _, r := range m.results {
		stats.TotalEntries++
		stats.TotalSizeBytes += uint64(len(r.Content))
	}
	return stats, nil
}

func (m *MockResultStore) Ping(ctx context.Context) error {
	return nil
}

// Puts returns how many results were stored
func (m *MockResultStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}
