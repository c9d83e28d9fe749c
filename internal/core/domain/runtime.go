package domain

import "sync"

// RuntimeConfig tracks which services are available at runtime.
// This is determined at startup and can be updated dynamically for the embedding service.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	CacheBackend string // "memory", "redis", "postgres" or "sqlite"
	AuthEnabled  bool

	// Dynamic capability flags
	embeddingAvailable bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(cacheBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		CacheBackend: cacheBackend,
	}
}

// EmbeddingAvailable returns whether the embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// CanEmbedChunks returns true if chunk embeddings can be generated
func (c *RuntimeConfig) CanEmbedChunks() bool {
	return c.EmbeddingAvailable()
}
