// Package tesseract provides the "tesseract" OCR backend. The real engine is
// compiled in with the tesseract build tag; without it every call reports a
// missing dependency.
package tesseract

import (
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.OcrBackend = (*Backend)(nil)

// BackendName is the registry name of this backend.
const BackendName = "tesseract"

// languages are the traineddata packs installed by the container image.
var languages = []string{"eng", "deu", "fra", "spa", "ita", "por", "nld", "osd"}

// Backend runs Tesseract. A fresh client is created per call so the backend
// is safe for concurrent use.
type Backend struct {
	languages []string
}

// New creates a tesseract backend. An empty language list uses the default
// installed packs.
func New(langs ...string) *Backend {
	if len(langs) == 0 {
		langs = languages
	}
	return &Backend{languages: langs}
}

func (b *Backend) Name() string { return BackendName }

func (b *Backend) SupportedLanguages() []string {
	out := make([]string, len(b.languages))
	copy(out, b.languages)
	return out
}

// supports reports whether every "+"-joined part of lang is installed.
func (b *Backend) supports(lang string) bool {
	if lang == "" {
		return false
	}
	start := 0
	for i := 0; i <= len(lang); i++ {
		if i < len(lang) && lang[i] != '+' {
			continue
		}
		if !contains(b.languages, lang[start:i]) {
			return false
		}
		start = i + 1
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// resolve fills in defaults for an OCR request.
func resolve(req driven.OcrRequest) (string, domain.TesseractConfig) {
	lang := req.Language
	tc := domain.DefaultTesseractConfig()
	if req.Config != nil {
		if lang == "" {
			lang = req.Config.Language
		}
		if req.Config.TesseractConfig != nil {
			tc = *req.Config.TesseractConfig
		}
	}
	if lang == "" {
		lang = domain.DefaultOcrConfig().Language
	}
	return lang, tc
}

func metadata(lang string, tc domain.TesseractConfig, tables int) *domain.OcrMetadata {
	return &domain.OcrMetadata{
		Language:     lang,
		PSM:          tc.PSM,
		OutputFormat: "text",
		TableCount:   tables,
		Backend:      BackendName,
	}
}
