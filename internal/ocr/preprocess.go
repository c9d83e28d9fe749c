package ocr

import (
	"bytes"
	"math"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// defaultSourceDPI is assumed when an image carries no resolution.
const defaultSourceDPI = 72

// resizeTolerance is the scale band around 1.0 inside which images are
// passed through untouched.
const resizeTolerance = 0.05

// Preprocessor rescales images to the configured OCR resolution.
type Preprocessor struct {
	cfg domain.ImageExtractionConfig
}

// NewPreprocessor creates a Preprocessor. A nil config uses defaults.
func NewPreprocessor(cfg *domain.ImageExtractionConfig) *Preprocessor {
	if cfg == nil {
		d := domain.DefaultImageExtractionConfig()
		cfg = &d
	}
	return &Preprocessor{cfg: *cfg}
}

// Process rescales data from sourceDPI to the target DPI, honouring the
// auto-adjust range and the maximum dimension. It returns the bytes to hand
// to the backend and their MIME type. Failures are recorded in the metadata
// and the original image is returned.
func (p *Preprocessor) Process(data []byte, mimeType string, sourceDPI float64) ([]byte, string, *domain.ImagePreprocessingMetadata) {
	if sourceDPI <= 0 {
		sourceDPI = defaultSourceDPI
	}
	meta := &domain.ImagePreprocessingMetadata{
		OriginalDPI: [2]float64{sourceDPI, sourceDPI},
		TargetDPI:   p.cfg.TargetDPI,
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		msg := err.Error()
		meta.ResizeError = &msg
		meta.SkippedResize = true
		meta.FinalDPI = int(sourceDPI)
		meta.ScaleFactor = 1
		return data, mimeType, meta
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	meta.OriginalDimensions = [2]int{w, h}

	finalDPI := p.cfg.TargetDPI
	if finalDPI <= 0 {
		finalDPI = int(sourceDPI)
	}
	if p.cfg.AutoAdjustDPI && p.cfg.MaxImageDimension > 0 && max(w, h) > 0 {
		calculated := int(math.Floor(float64(p.cfg.MaxImageDimension) * sourceDPI / float64(max(w, h))))
		meta.CalculatedDPI = &calculated
		adjusted := min(finalDPI, calculated)
		if p.cfg.MinDPI > 0 {
			adjusted = max(adjusted, p.cfg.MinDPI)
		}
		if p.cfg.MaxDPI > 0 {
			adjusted = min(adjusted, p.cfg.MaxDPI)
		}
		meta.AutoAdjusted = adjusted != finalDPI
		finalDPI = adjusted
	}
	meta.FinalDPI = finalDPI

	scale := float64(finalDPI) / sourceDPI
	newW := int(math.Round(float64(w) * scale))
	newH := int(math.Round(float64(h) * scale))
	if limit := p.cfg.MaxImageDimension; limit > 0 && max(newW, newH) > limit {
		if newW >= newH {
			newH = max(1, int(math.Round(float64(newH)*float64(limit)/float64(newW))))
			newW = limit
		} else {
			newW = max(1, int(math.Round(float64(newW)*float64(limit)/float64(newH))))
			newH = limit
		}
		scale = float64(newW) / float64(w)
		meta.DimensionClamped = true
	}
	meta.ScaleFactor = scale

	if math.Abs(scale-1) < resizeTolerance {
		meta.SkippedResize = true
		meta.ResampleMethod = "none"
		return data, mimeType, meta
	}

	filter, method := imaging.Lanczos, "lanczos"
	if scale > 1 {
		filter, method = imaging.CatmullRom, "catmull_rom"
	}
	meta.ResampleMethod = method

	resized := imaging.Resize(img, newW, newH, filter)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		msg := err.Error()
		meta.ResizeError = &msg
		meta.SkippedResize = true
		return data, mimeType, meta
	}

	dims := [2]int{newW, newH}
	meta.NewDimensions = &dims
	return buf.Bytes(), "image/png", meta
}
