package mocks

import (
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.AIServiceFactory = (*MockAIFactory)(nil)

// MockAIFactory returns a fixed embedding service
type MockAIFactory struct {
	Service driven.EmbeddingService
	Err     error
}

func (m *MockAIFactory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Service == nil {
		return NewMockEmbeddingService(), nil
	}
	return m.Service, nil
}
