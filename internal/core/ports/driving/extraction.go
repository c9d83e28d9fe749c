package driving

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// Document is one in-memory input to a batch extraction
type Document struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type,omitempty"`
	Name     string `json:"name,omitempty"`
}

// AsyncResult is delivered on the channel returned by ExtractBytesAsync
type AsyncResult struct {
	Result *domain.ExtractionResult
	Err    error
}

// ExtractionService turns documents into extraction results
type ExtractionService interface {
	// ExtractBytes extracts a single in-memory document. An empty mimeType is
	// detected from the content.
	ExtractBytes(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error)

	// ExtractFile fetches a document from a path or URI and extracts it
	ExtractFile(ctx context.Context, location, mimeType string, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error)

	// ExtractBytesAsync runs ExtractBytes in the background. The channel
	// receives exactly one value and is then closed.
	ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) <-chan AsyncResult

	// BatchExtractBytes extracts documents concurrently. Results keep input
	// order; a failed document yields a result carrying metadata.error.
	BatchExtractBytes(ctx context.Context, docs []Document, cfg *domain.ExtractionConfig) ([]*domain.ExtractionResult, error)

	// BatchExtractFiles is BatchExtractBytes for paths or URIs
	BatchExtractFiles(ctx context.Context, locations []string, cfg *domain.ExtractionConfig) ([]*domain.ExtractionResult, error)

	// Chunk splits arbitrary text with the chunker
	Chunk(ctx context.Context, content string, cfg *domain.ChunkingConfig) ([]domain.Chunk, error)

	// SupportedMimeTypes lists every MIME type with an extractor, sorted
	SupportedMimeTypes() []string

	// CacheStats summarises the result cache
	CacheStats(ctx context.Context) (domain.CacheStats, error)

	// ClearCache drops every cached result
	ClearCache(ctx context.Context) error
}
