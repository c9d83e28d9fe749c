package extractors

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var _ driven.DocumentExtractor = (*XMLExtractor)(nil)

// XMLExtractor streams XML documents, keeping character data as content.
type XMLExtractor struct{}

func (e *XMLExtractor) Name() string { return "xml" }

func (e *XMLExtractor) SupportedMimeTypes() []string {
	return []string{"application/xml", "text/xml"}
}

func (e *XMLExtractor) Priority() int {
	return 50 // Format-specific
}

func (e *XMLExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	dec := xml.NewDecoder(bytes.NewReader(trimBOM(data)))
	dec.Strict = false
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		lines  []string
		count  int
		unique = make(map[string]struct{})
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewParsingError("invalid xml", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			count++
			name := t.Name.Local
			if t.Name.Space != "" {
				name = t.Name.Space + ":" + name
			}
			unique[name] = struct{}{}
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				lines = append(lines, text)
			}
		}
	}

	names := make([]string, 0, len(unique))
	for n := range unique {
		names = append(names, n)
	}
	sort.Strings(names)

	return &driven.Extraction{Result: &domain.ExtractionResult{
		Content:  normalizeText(strings.Join(lines, "\n")),
		MimeType: mimeType,
		Metadata: domain.Metadata{Format: &domain.XMLMetadata{
			ElementCount:   count,
			UniqueElements: names,
		}},
		Tables: []domain.Table{},
	}}, nil
}
