package driving

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// PluginList is the set of registered plugins by kind
type PluginList struct {
	OcrBackends      []string `json:"ocr_backends"`
	PostProcessors   []string `json:"post_processors"`
	Validators       []string `json:"validators"`
	CustomExtractors []string `json:"custom_extractors"`
	Formats          []string `json:"formats"`
}

// EmbeddingSettingsInput is the input for embedding configuration
type EmbeddingSettingsInput struct {
	Provider domain.AIProvider `json:"provider"`
	Model    string            `json:"model"`
	APIKey   string            `json:"api_key"`
	BaseURL  string            `json:"base_url,omitempty"`
}

// EmbeddingStatus represents the status of the embedding service
type EmbeddingStatus struct {
	Available    bool              `json:"available"`
	Provider     domain.AIProvider `json:"provider,omitempty"`
	Model        string            `json:"model,omitempty"`
	EmbeddingDim int               `json:"embedding_dim,omitempty"`
}

// PluginService manages the runtime plugin registries
type PluginService interface {
	// RegisterOcrBackend adds a backend; names are unique
	RegisterOcrBackend(backend driven.OcrBackend) error
	UnregisterOcrBackend(name string) error

	// RegisterPostProcessor appends a processor to its stage
	RegisterPostProcessor(proc driven.PostProcessor) error
	UnregisterPostProcessor(name string) error

	// RegisterValidator adds a validator ordered by priority
	RegisterValidator(v driven.Validator) error
	UnregisterValidator(name string) error

	// RegisterExtractor overrides the built-in extractor for mimeType
	RegisterExtractor(mimeType string, extractor driven.DocumentExtractor) error
	UnregisterExtractor(mimeType string) error

	// List returns the registered plugin names
	List() PluginList

	// Clear removes every OCR backend, post-processor, validator and custom
	// extractor. Built-in extractors stay.
	Clear()

	// ConfigureEmbedding replaces the chunk embedding service. Unconfigured
	// settings disable embeddings.
	ConfigureEmbedding(ctx context.Context, input EmbeddingSettingsInput) (*EmbeddingStatus, error)

	// EmbeddingStatus reports the current embedding service
	EmbeddingStatus() *EmbeddingStatus
}
