package driven

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// DocumentExtractor turns raw document bytes into a provisional result.
// Implementations hold no mutable state between calls and are invoked
// concurrently from the batch worker pool.
type DocumentExtractor interface {
	// Name returns the extractor name for logging/debugging.
	Name() string

	// SupportedMimeTypes returns the exact MIME types this extractor handles.
	SupportedMimeTypes() []string

	// Priority returns the extractor priority (higher wins when two built-ins
	// claim the same MIME type).
	Priority() int

	// Extract parses data. The mimeType is already normalised.
	Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*Extraction, error)
}

// Extraction is the output of a DocumentExtractor.
type Extraction struct {
	Result *domain.ExtractionResult

	// NeedsOCR signals that the document, or some of its regions, has no
	// machine-readable text.
	NeedsOCR bool

	// OCRInputs are the rasters handed to the OCR backend. When empty and OCR
	// runs, the original document bytes are used.
	OCRInputs []OCRInput
}

// OCRInput is one image to recognise.
type OCRInput struct {
	Data       []byte
	MimeType   string
	PageNumber int

	// DPI of the source raster, zero when unknown.
	DPI float64
}

// ExtractorRegistry resolves MIME types to extractors.
type ExtractorRegistry interface {
	// Get returns the extractor for mimeType. Custom registrations win over
	// built-ins. Returns an UnsupportedFormat error when nothing matches.
	Get(mimeType string) (DocumentExtractor, error)

	// List returns all supported MIME types, sorted.
	List() []string
}
