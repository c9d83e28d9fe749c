package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

func TestXMLExtractor(t *testing.T) {
	e := &XMLExtractor{}
	input := `<?xml version="1.0"?><catalog><book id="1"><title>Go</title></book><book id="2"><title>Rust</title></book></catalog>`

	ext, err := e.Extract(context.Background(), []byte(input), "application/xml", nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if ext.Result.Content != "Go\nRust" {
		t.Errorf("unexpected content %q", ext.Result.Content)
	}

	meta, ok := ext.Result.Metadata.Format.(*domain.XMLMetadata)
	if !ok {
		t.Fatalf("expected xml metadata, got %T", ext.Result.Metadata.Format)
	}
	if meta.ElementCount != 5 {
		t.Errorf("expected 5 elements, got %d", meta.ElementCount)
	}
	want := []string{"book", "catalog", "title"}
	if len(meta.UniqueElements) != len(want) {
		t.Fatalf("unexpected unique elements %v", meta.UniqueElements)
	}
	for i := range want {
		if meta.UniqueElements[i] != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, meta.UniqueElements[i])
		}
	}
}

func TestXMLExtractor_Malformed(t *testing.T) {
	e := &XMLExtractor{}
	_, err := e.Extract(context.Background(), []byte("<a><b></a"), "application/xml", nil)
	if !errors.Is(err, domain.ErrParsing) {
		t.Errorf("expected parsing error, got %v", err)
	}
}
