package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var (
	_ driven.DocumentExtractor    = (*MockExtractor)(nil)
	_ driven.OcrBackend           = (*MockOcrBackend)(nil)
	_ driven.StagedPostProcessor  = (*MockPostProcessor)(nil)
	_ driven.PrioritizedValidator = (*MockValidator)(nil)
	_ driven.ConditionalValidator = (*MockValidator)(nil)
)

// MockExtractor is a mock implementation of DocumentExtractor for testing
type MockExtractor struct {
	NameValue  string
	MimeTypes  []string
	PriorityV  int
	ExtractFn  func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error)
	mu         sync.Mutex
	callsCount int
}

func NewMockExtractor(name string, mimeTypes ...string) *MockExtractor {
	return &MockExtractor{NameValue: name, MimeTypes: mimeTypes, PriorityV: 50}
}

func (m *MockExtractor) Name() string { return m.NameValue }
func (m *MockExtractor) SupportedMimeTypes() []string { return m.MimeTypes }
func (m *MockExtractor) Priority() int { return m.PriorityV }

func (m *MockExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	m.mu.Lock()
	m.callsCount++
	m.mu.Unlock()

	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, data, mimeType, cfg)
	}
	return &driven.Extraction{Result: &domain.ExtractionResult{
		Content:  string(data),
		MimeType: mimeType,
		Tables:   []domain.Table{},
	}}, nil
}

// Calls returns how many times Extract ran
func (m *MockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callsCount
}

// MockOcrBackend is a mock implementation of OcrBackend for testing
type MockOcrBackend struct {
	NameValue      string
	Languages      []string
	ProcessFn      func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error)
	InitializeErr  error
	mu             sync.Mutex
	initialized    bool
	shutdown       bool
	processedCount int
}

func NewMockOcrBackend(name string) *MockOcrBackend {
	return &MockOcrBackend{NameValue: name, Languages: []string{"eng"}}
}

func (m *MockOcrBackend) Name() string { return m.NameValue }
func (m *MockOcrBackend) SupportedLanguages() []string { return m.Languages }

func (m *MockOcrBackend) ProcessImage(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
	m.mu.Lock()
	m.processedCount++
	m.mu.Unlock()

	if m.ProcessFn != nil {
		return m.ProcessFn(ctx, image, req)
	}
	return &driven.OcrRawResult{Content: "", Metadata: &domain.OcrMetadata{Language: req.Language}}, nil
}

func (m *MockOcrBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InitializeErr != nil {
		return m.InitializeErr
	}
	m.initialized = true
	return nil
}

func (m *MockOcrBackend) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = true
	return nil
}

func (m *MockOcrBackend) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func (m *MockOcrBackend) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

func (m *MockOcrBackend) Processed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processedCount
}

// MockPostProcessor is a mock implementation of StagedPostProcessor for testing
type MockPostProcessor struct {
	NameValue string
	Stage     driven.ProcessingStage
	ProcessFn func(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error)
}

func NewMockPostProcessor(name string, stage driven.ProcessingStage) *MockPostProcessor {
	return &MockPostProcessor{NameValue: name, Stage: stage}
}

func (m *MockPostProcessor) Name() string { return m.NameValue }
func (m *MockPostProcessor) ProcessingStage() driven.ProcessingStage { return m.Stage }

func (m *MockPostProcessor) Process(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
	if m.ProcessFn != nil {
		return m.ProcessFn(ctx, result, cfg)
	}
	return result, nil
}

// MockValidator is a mock implementation of Validator for testing
type MockValidator struct {
	NameValue  string
	PriorityV  int
	ValidateFn func(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) error
	ShouldFn   func(result *domain.ExtractionResult, cfg *domain.ExtractionConfig) bool
}

func NewMockValidator(name string, priority int) *MockValidator {
	return &MockValidator{NameValue: name, PriorityV: priority}
}

func (m *MockValidator) Name() string { return m.NameValue }
func (m *MockValidator) Priority() int { return m.PriorityV }

func (m *MockValidator) Validate(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) error {
	if m.ValidateFn != nil {
		return m.ValidateFn(ctx, result, cfg)
	}
	return nil
}

func (m *MockValidator) ShouldValidate(result *domain.ExtractionResult, cfg *domain.ExtractionConfig) bool {
	if m.ShouldFn != nil {
		return m.ShouldFn(result, cfg)
	}
	return true
}
