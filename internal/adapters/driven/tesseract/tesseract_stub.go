//go:build !tesseract

package tesseract

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Available reports whether the binary was built with Tesseract.
const Available = false

// ProcessImage always fails: this binary was built without the tesseract tag.
func (b *Backend) ProcessImage(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
	return nil, domain.NewMissingDependencyError("tesseract", "binary built without the tesseract build tag")
}
