package ai

import (
	"fmt"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

const defaultOllamaBaseURL = "http://localhost:11434/v1"

// Factory creates embedding services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings.
// Returns nil, nil when the settings are not configured.
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	case domain.AIProviderOllama:
		return NewOllamaEmbedding(settings.BaseURL, settings.Model)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %s", domain.ErrInvalidInput, settings.Provider)
	}
}

// NewOllamaEmbedding talks to the OpenAI-compatible endpoint of a local
// Ollama server. No API key is sent.
func NewOllamaEmbedding(baseURL, model string) (driven.EmbeddingService, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama embedding model is required")
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return newEmbeddingClient("", model, baseURL, 0), nil
}
