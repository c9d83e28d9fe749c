package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/runtime"
)

// Ensure pluginService implements PluginService
var _ driving.PluginService = (*pluginService)(nil)

// pluginService implements the PluginService interface
type pluginService struct {
	plugins   *runtime.Plugins
	aiFactory driven.AIServiceFactory
	logger    *slog.Logger

	mu sync.Mutex
	// embedding holds the settings of the active embedding service
	embedding *domain.EmbeddingSettings
}

// NewPluginService creates a new PluginService
func NewPluginService(plugins *runtime.Plugins, aiFactory driven.AIServiceFactory, logger *slog.Logger) driving.PluginService {
	if logger == nil {
		logger = slog.Default()
	}
	return &pluginService{
		plugins:   plugins,
		aiFactory: aiFactory,
		logger:    logger.With("component", "plugin_service"),
	}
}

func (s *pluginService) RegisterOcrBackend(backend driven.OcrBackend) error {
	return s.plugins.OCR.Register(backend)
}

func (s *pluginService) UnregisterOcrBackend(name string) error {
	return s.plugins.OCR.Unregister(name)
}

func (s *pluginService) RegisterPostProcessor(proc driven.PostProcessor) error {
	return s.plugins.PostProcessors.Register(proc)
}

func (s *pluginService) UnregisterPostProcessor(name string) error {
	return s.plugins.PostProcessors.Unregister(name)
}

func (s *pluginService) RegisterValidator(v driven.Validator) error {
	return s.plugins.Validators.Register(v)
}

func (s *pluginService) UnregisterValidator(name string) error {
	return s.plugins.Validators.Unregister(name)
}

func (s *pluginService) RegisterExtractor(mimeType string, extractor driven.DocumentExtractor) error {
	return s.plugins.Extractors.RegisterCustom(mimeType, extractor)
}

func (s *pluginService) UnregisterExtractor(mimeType string) error {
	return s.plugins.Extractors.UnregisterCustom(mimeType)
}

// List returns the registered plugin names
func (s *pluginService) List() driving.PluginList {
	return driving.PluginList{
		OcrBackends:      s.plugins.OCR.List(),
		PostProcessors:   s.plugins.PostProcessors.List(),
		Validators:       s.plugins.Validators.List(),
		CustomExtractors: s.plugins.Extractors.ListCustom(),
		Formats:          s.plugins.Extractors.List(),
	}
}

func (s *pluginService) Clear() {
	s.plugins.Clear()
}

// ConfigureEmbedding creates the embedding service from settings and
// hot-swaps it after a health check
func (s *pluginService) ConfigureEmbedding(ctx context.Context, input driving.EmbeddingSettingsInput) (*driving.EmbeddingStatus, error) {
	settings := &domain.EmbeddingSettings{
		Provider: input.Provider,
		Model:    input.Model,
		APIKey:   input.APIKey,
		BaseURL:  input.BaseURL,
	}
	if settings.Provider != "" && !settings.Provider.IsValid() {
		return nil, domain.NewValidationError("unknown embedding provider " + string(settings.Provider))
	}

	if !settings.IsConfigured() {
		// Explicitly disable
		s.plugins.SetEmbeddingService(nil)
		s.setEmbedding(nil)
		return &driving.EmbeddingStatus{Available: false}, nil
	}
	if s.aiFactory == nil {
		return nil, domain.NewMissingDependencyError("embedding", "no embedding provider factory configured")
	}

	svc, err := s.aiFactory.CreateEmbeddingService(settings)
	if err != nil {
		s.logger.Warn("embedding service creation failed", "provider", settings.Provider, "error", err)
		return &driving.EmbeddingStatus{Available: false}, nil
	}
	if err := s.plugins.ValidateAndSetEmbedding(ctx, svc); err != nil {
		s.logger.Warn("embedding service health check failed", "provider", settings.Provider, "error", err)
		return &driving.EmbeddingStatus{Available: false}, nil
	}
	s.setEmbedding(settings)
	return s.EmbeddingStatus(), nil
}

// EmbeddingStatus reports the current embedding service
func (s *pluginService) EmbeddingStatus() *driving.EmbeddingStatus {
	svc := s.plugins.EmbeddingService()
	if svc == nil {
		return &driving.EmbeddingStatus{Available: false}
	}
	status := &driving.EmbeddingStatus{
		Available:    true,
		Model:        svc.Model(),
		EmbeddingDim: svc.Dimensions(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.embedding != nil {
		status.Provider = s.embedding.Provider
	}
	return status
}

func (s *pluginService) setEmbedding(settings *domain.EmbeddingSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embedding = settings
}
