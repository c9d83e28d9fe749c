package extractors

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps MIME types to extractors. Built-ins are selected by exact
// MIME match and priority; a custom extractor registered for a MIME type
// takes precedence over any built-in.
type Registry struct {
	mu       sync.RWMutex
	builtins []driven.DocumentExtractor
	custom   map[string]driven.DocumentExtractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		builtins: make([]driven.DocumentExtractor, 0),
		custom:   make(map[string]driven.DocumentExtractor),
	}
}

// Register adds a built-in extractor.
func (r *Registry) Register(extractor driven.DocumentExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.builtins = append(r.builtins, extractor)
}

// RegisterCustom registers extractor for mimeType, overriding built-ins.
func (r *Registry) RegisterCustom(mimeType string, extractor driven.DocumentExtractor) error {
	mimeType = NormalizeMimeType(mimeType)
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return domain.NewPluginError(extractorName(extractor), "invalid MIME type "+mimeType)
	}
	if extractor == nil {
		return domain.NewPluginError("", "extractor must not be nil")
	}
	if extractor.Name() == "" {
		return domain.NewPluginError("", "extractor name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.custom[mimeType] = extractor
	return nil
}

// UnregisterCustom removes the custom extractor for mimeType.
// The built-in extractor, if any, is used again afterwards.
func (r *Registry) UnregisterCustom(mimeType string) error {
	mimeType = NormalizeMimeType(mimeType)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.custom[mimeType]; !ok {
		return domain.ErrNotFound
	}
	delete(r.custom, mimeType)
	return nil
}

// ClearCustom removes all custom extractors.
func (r *Registry) ClearCustom() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.custom = make(map[string]driven.DocumentExtractor)
}

// ListCustom returns MIME types with a custom extractor, sorted.
func (r *Registry) ListCustom() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.custom))
	for t := range r.custom {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Get retrieves the extractor for a MIME type.
func (r *Registry) Get(mimeType string) (driven.DocumentExtractor, error) {
	mimeType = NormalizeMimeType(mimeType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.custom[mimeType]; ok {
		return e, nil
	}

	var best driven.DocumentExtractor
	for _, e := range r.builtins {
		if !supports(e, mimeType) {
			continue
		}
		if best == nil || e.Priority() > best.Priority() {
			best = e
		}
	}
	if best == nil {
		return nil, domain.NewUnsupportedFormatError(mimeType)
	}
	return best, nil
}

// List returns all supported MIME types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[string]struct{})
	for _, e := range r.builtins {
		for _, t := range e.SupportedMimeTypes() {
			typeSet[NormalizeMimeType(t)] = struct{}{}
		}
	}
	for t := range r.custom {
		typeSet[t] = struct{}{}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func supports(e driven.DocumentExtractor, mimeType string) bool {
	for _, t := range e.SupportedMimeTypes() {
		if NormalizeMimeType(t) == mimeType {
			return true
		}
	}
	return false
}

func extractorName(e driven.DocumentExtractor) string {
	if e == nil {
		return ""
	}
	return e.Name()
}

// NormalizeMimeType lower-cases a MIME type and strips parameters such as charset.
func NormalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// DefaultRegistry creates a registry with the built-in extractors registered.
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry()

	r.Register(&PlainTextExtractor{})
	r.Register(&MarkdownExtractor{})
	r.Register(NewHTMLExtractor())
	r.Register(&XMLExtractor{})
	r.Register(&PDFExtractor{})
	r.Register(&ImageExtractor{})
	r.Register(NewZipExtractor(r, logger))

	return r
}
