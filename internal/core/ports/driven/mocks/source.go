package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.DocumentSource = (*MockDocumentSource)(nil)

// MockDocumentSource serves documents from memory for locations with a prefix
type MockDocumentSource struct {
	mu        sync.RWMutex
	prefix    string
	documents map[string]mockDocument
}

type mockDocument struct {
	data     []byte
	mimeType string
}

// NewMockDocumentSource creates a source handling locations starting with prefix
func NewMockDocumentSource(prefix string) *MockDocumentSource {
	return &MockDocumentSource{prefix: prefix, documents: make(map[string]mockDocument)}
}

// Add stores a document under location
func (m *MockDocumentSource) Add(location string, data []byte, mimeType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[location] = mockDocument{data: data, mimeType: mimeType}
}

func (m *MockDocumentSource) Supports(location string) bool {
	return strings.HasPrefix(location, m.prefix)
}

func (m *MockDocumentSource) Fetch(ctx context.Context, location string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[location]
	if !ok {
		return nil, "", domain.NewIOError("document not found: "+location, domain.ErrNotFound)
	}
	return doc.data, doc.mimeType, nil
}
