package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// backendNamePattern restricts backend names to identifier-like strings.
var backendNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Registry holds OCR backends by name. It is safe for concurrent use;
// lookups take a read lock so dispatch never blocks on other lookups.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]driven.OcrBackend
	logger   *slog.Logger
}

// NewRegistry creates an empty OCR backend registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backends: make(map[string]driven.OcrBackend),
		logger:   logger.With("component", "ocr_registry"),
	}
}

// ValidateName reports whether name is acceptable for a backend.
func ValidateName(name string) error {
	if name == "" {
		return domain.NewPluginError(name, "backend name must not be empty")
	}
	if !backendNamePattern.MatchString(name) {
		return domain.NewPluginError(name, "backend name contains invalid characters")
	}
	return nil
}

// Register adds a backend. Backends implementing driven.Initializer are
// initialized before they become visible.
func (r *Registry) Register(backend driven.OcrBackend) error {
	if backend == nil {
		return domain.NewPluginError("", "backend must not be nil")
	}
	name := backend.Name()
	if err := ValidateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return domain.NewPluginError(name, "backend already registered")
	}
	if init, ok := backend.(driven.Initializer); ok {
		if err := init.Initialize(); err != nil {
			return domain.NewPluginError(name, fmt.Sprintf("initialize failed: %v", err))
		}
	}

	r.backends[name] = backend
	r.logger.Debug("ocr backend registered", "backend", name)
	return nil
}

// Unregister removes a backend and shuts it down. The name can be
// registered again as soon as this returns.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	backend, ok := r.backends[name]
	if ok {
		delete(r.backends, name)
	}
	r.mu.Unlock()

	if !ok {
		return domain.ErrNotFound
	}
	r.shutdown(name, backend)
	return nil
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (driven.OcrBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, ok := r.backends[name]
	if !ok {
		return nil, domain.NewMissingDependencyError(name, "ocr backend not registered")
	}
	return backend, nil
}

// List returns registered backend names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes and shuts down every backend.
func (r *Registry) Clear() {
	r.mu.Lock()
	backends := r.backends
	r.backends = make(map[string]driven.OcrBackend)
	r.mu.Unlock()

	for name, backend := range backends {
		r.shutdown(name, backend)
	}
}

func (r *Registry) shutdown(name string, backend driven.OcrBackend) {
	if s, ok := backend.(driven.Shutdowner); ok {
		if err := s.Shutdown(); err != nil {
			r.logger.Warn("ocr backend shutdown failed", "backend", name, "error", err)
		}
	}
}

// Invoke runs the named backend on one image. Backend failures and panics
// are reported as OCR errors; taxonomy errors such as a missing native
// dependency pass through unchanged.
func (r *Registry) Invoke(ctx context.Context, name string, image []byte, req driven.OcrRequest) (res *driven.OcrRawResult, err error) {
	backend, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			perr := domain.NewPanicError(rec)
			r.logger.Error("ocr backend panicked", "backend", name, "panic", perr.Message, "context", perr.Panic.String())
			res, err = nil, domain.NewOCRError(fmt.Sprintf("backend %q panicked", name), perr)
		}
	}()

	res, err = backend.ProcessImage(ctx, image, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if domain.KindOf(err) != domain.KindInternal {
			return nil, err
		}
		return nil, domain.NewOCRError(fmt.Sprintf("backend %q failed", name), err)
	}
	if res == nil {
		res = &driven.OcrRawResult{}
	}
	return res, nil
}
