package extractors

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.DocumentExtractor = (*ImageExtractor)(nil)

// ImageExtractor reads image headers. Images carry no text layer, so the
// extraction always requests OCR.
type ImageExtractor struct{}

func (e *ImageExtractor) Name() string { return "image" }

func (e *ImageExtractor) SupportedMimeTypes() []string {
	return []string{"image/png", "image/jpeg", "image/gif", "image/tiff", "image/bmp", "image/webp"}
}

func (e *ImageExtractor) Priority() int {
	return 50 // Format-specific
}

func (e *ImageExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewParsingError("unreadable image", err)
	}

	return &driven.Extraction{
		Result: &domain.ExtractionResult{
			MimeType: mimeType,
			Metadata: domain.Metadata{Format: &domain.ImageMetadata{
				Width:  imgCfg.Width,
				Height: imgCfg.Height,
				Format: format,
			}},
			Tables: []domain.Table{},
		},
		NeedsOCR:  true,
		OCRInputs: []driven.OCRInput{{Data: data, MimeType: mimeType, PageNumber: 1}},
	}, nil
}
