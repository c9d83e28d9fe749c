package driven

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// OcrBackend recognises text in images. Backends must be safe for
// concurrent use; the registry does not serialise calls.
type OcrBackend interface {
	// Name returns the unique backend name.
	Name() string

	// SupportedLanguages returns the language codes the backend accepts.
	// Rejecting unsupported languages is the backend's job.
	SupportedLanguages() []string

	// ProcessImage recognises text in a single image.
	ProcessImage(ctx context.Context, image []byte, req OcrRequest) (*OcrRawResult, error)
}

// OcrRequest carries the per-call OCR parameters.
type OcrRequest struct {
	Language   string
	MimeType   string
	PageNumber int
	Config     *domain.OcrConfig
}

// OcrRawResult is what a backend returns before the pipeline folds it into
// an ExtractionResult.
type OcrRawResult struct {
	Content  string
	Tables   []domain.Table
	Elements []domain.OcrElement
	Metadata *domain.OcrMetadata
}
