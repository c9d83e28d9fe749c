package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven/mocks"
)

// mockEmbeddingService is a mock implementation for testing
type mockEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-model"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

func TestNewPlugins_FillsNilRegistries(t *testing.T) {
	p := NewPlugins(nil, nil, nil, nil, nil, nil)

	if p.Extractors == nil || p.OCR == nil || p.PostProcessors == nil || p.Validators == nil {
		t.Fatal("expected non-nil registries")
	}
	if p.Config() == nil {
		t.Error("expected default runtime config")
	}
	if len(p.PostProcessors.List()) != 0 {
		t.Error("expected empty post-processor pipeline")
	}
}

func TestDefaultPlugins(t *testing.T) {
	p := DefaultPlugins(domain.NewRuntimeConfig("memory"), nil)

	if len(p.Extractors.List()) == 0 {
		t.Error("expected built-in extractors")
	}
	if len(p.PostProcessors.List()) != 4 {
		t.Errorf("expected 4 built-in post-processors, got %v", p.PostProcessors.List())
	}
	if len(p.Validators.List()) != 0 {
		t.Errorf("expected no validators by default, got %v", p.Validators.List())
	}
	if len(p.OCR.List()) != 0 {
		t.Error("expected no OCR backends by default")
	}
}

func TestPlugins_ClearAndInitialize(t *testing.T) {
	p := DefaultPlugins(nil, nil)
	backend := mocks.NewMockOcrBackend("fake")
	if err := p.OCR.Register(backend); err != nil {
		t.Fatal(err)
	}
	if err := p.Extractors.RegisterCustom("application/x-custom", mocks.NewMockExtractor("custom", "application/x-custom")); err != nil {
		t.Fatal(err)
	}

	p.Clear()

	if len(p.OCR.List()) != 0 || len(p.PostProcessors.List()) != 0 || len(p.Validators.List()) != 0 {
		t.Error("expected registries cleared")
	}
	if len(p.Extractors.ListCustom()) != 0 {
		t.Error("expected custom extractors cleared")
	}
	if !backend.IsShutdown() {
		t.Error("expected OCR backend shut down")
	}
	if _, err := p.Extractors.Get("text/plain"); err != nil {
		t.Errorf("built-in extractors must survive clear: %v", err)
	}

	if err := p.Initialize(); err != nil {
		t.Fatal(err)
	}
	if len(p.PostProcessors.List()) != 4 {
		t.Error("expected built-ins restored")
	}
	if err := p.Initialize(); err != nil {
		t.Errorf("initialize must be idempotent: %v", err)
	}
}

func TestPlugins_EmbeddingService(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	p := NewPlugins(config, nil, nil, nil, nil, nil)

	if p.EmbeddingService() != nil {
		t.Error("expected nil embedding service initially")
	}

	first := &mockEmbeddingService{}
	p.SetEmbeddingService(first)
	if !config.EmbeddingAvailable() {
		t.Error("expected embedding available")
	}

	second := &mockEmbeddingService{}
	p.SetEmbeddingService(second)
	if !first.closed {
		t.Error("expected previous service closed")
	}

	if err := p.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !second.closed || p.EmbeddingService() != nil || config.EmbeddingAvailable() {
		t.Error("expected embedding service released on shutdown")
	}
}

func TestPlugins_ValidateAndSetEmbedding(t *testing.T) {
	p := NewPlugins(nil, nil, nil, nil, nil, nil)

	bad := &mockEmbeddingService{healthCheckErr: errors.New("unreachable")}
	if err := p.ValidateAndSetEmbedding(context.Background(), bad); err == nil {
		t.Fatal("expected health check error")
	}
	if !bad.closed {
		t.Error("expected failing service closed")
	}
	if p.EmbeddingService() != nil {
		t.Error("failing service must not be set")
	}

	var good driven.EmbeddingService = &mockEmbeddingService{}
	if err := p.ValidateAndSetEmbedding(context.Background(), good); err != nil {
		t.Fatal(err)
	}
	if p.EmbeddingService() != good {
		t.Error("expected healthy service set")
	}

	if err := p.ValidateAndSetEmbedding(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if p.EmbeddingService() != nil {
		t.Error("expected service cleared")
	}
}
