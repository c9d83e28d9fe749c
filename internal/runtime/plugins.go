package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/extractors"
	"github.com/custodia-labs/sercha-extract/internal/ocr"
	"github.com/custodia-labs/sercha-extract/internal/postprocessors"
	"github.com/custodia-labs/sercha-extract/internal/validators"
)

// Plugins holds the process-wide plugin registries and the optional
// embedding service. Registries synchronize themselves; the embedding
// service can be swapped at runtime.
type Plugins struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	Extractors     *extractors.Registry
	OCR            *ocr.Registry
	PostProcessors *postprocessors.Pipeline
	Validators     *validators.Pipeline

	embeddingService driven.EmbeddingService
	logger           *slog.Logger
}

// NewPlugins creates a Plugins object from existing registries. Nil
// registries are replaced with empty ones.
func NewPlugins(config *domain.RuntimeConfig, ex *extractors.Registry, o *ocr.Registry, pp *postprocessors.Pipeline, v *validators.Pipeline, logger *slog.Logger) *Plugins {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil {
		config = domain.NewRuntimeConfig("memory")
	}
	if ex == nil {
		ex = extractors.NewRegistry()
	}
	if o == nil {
		o = ocr.NewRegistry(logger)
	}
	if pp == nil {
		pp = postprocessors.NewPipeline(logger)
	}
	if v == nil {
		v = validators.NewPipeline(logger)
	}
	return &Plugins{
		config:         config,
		Extractors:     ex,
		OCR:            o,
		PostProcessors: pp,
		Validators:     v,
		logger:         logger.With("component", "plugins"),
	}
}

// DefaultPlugins creates Plugins with the built-in extractors and
// post-processors. OCR backends and validators are registered by the caller.
func DefaultPlugins(config *domain.RuntimeConfig, logger *slog.Logger) *Plugins {
	return NewPlugins(config,
		extractors.DefaultRegistry(logger),
		ocr.NewRegistry(logger),
		postprocessors.DefaultPipeline(logger),
		validators.NewPipeline(logger),
		logger,
	)
}

// Initialize registers any built-in post-processor that is not registered,
// e.g. after Clear.
func (p *Plugins) Initialize() error {
	var errs []error

	registered := toSet(p.PostProcessors.List())
	for _, proc := range []driven.PostProcessor{
		postprocessors.NewQualityProcessor(),
		postprocessors.NewLanguageDetector(),
		postprocessors.NewKeywordExtractor(),
		postprocessors.NewElementBuilder(),
	} {
		if !registered[proc.Name()] {
			errs = append(errs, p.PostProcessors.Register(proc))
		}
	}
	return errors.Join(errs...)
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Config returns the runtime configuration
func (p *Plugins) Config() *domain.RuntimeConfig {
	return p.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (p *Plugins) EmbeddingService() driven.EmbeddingService {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.embeddingService
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (p *Plugins) SetEmbeddingService(svc driven.EmbeddingService) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.embeddingService != nil {
		_ = p.embeddingService.Close()
	}

	p.embeddingService = svc
	p.config.SetEmbeddingAvailable(svc != nil)
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (p *Plugins) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		p.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	p.SetEmbeddingService(svc)
	return nil
}

// Clear empties every registry except the built-in extractors, which
// cannot be removed.
func (p *Plugins) Clear() {
	p.Extractors.ClearCustom()
	p.OCR.Clear()
	p.PostProcessors.Clear()
	p.Validators.Clear()
	p.logger.Info("plugin registries cleared")
}

// Shutdown clears every registry and closes the embedding service.
func (p *Plugins) Shutdown() error {
	p.Clear()

	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.embeddingService != nil {
		err = p.embeddingService.Close()
		p.embeddingService = nil
	}
	p.config.SetEmbeddingAvailable(false)
	return err
}
