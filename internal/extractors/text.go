package extractors

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

var (
	_ driven.DocumentExtractor = (*PlainTextExtractor)(nil)
	_ driven.DocumentExtractor = (*MarkdownExtractor)(nil)
)

// PlainTextExtractor handles plain text content.
type PlainTextExtractor struct{}

func (e *PlainTextExtractor) Name() string { return "plain_text" }

func (e *PlainTextExtractor) SupportedMimeTypes() []string {
	return []string{"text/plain"}
}

func (e *PlainTextExtractor) Priority() int {
	return 10 // Generic
}

func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	content := normalizeText(decodeText(data))
	return &driven.Extraction{Result: &domain.ExtractionResult{
		Content:  content,
		MimeType: mimeType,
		Metadata: domain.Metadata{Format: textStats(content)},
		Tables:   []domain.Table{},
	}}, nil
}

// MarkdownExtractor handles Markdown content.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Name() string { return "markdown" }

func (e *MarkdownExtractor) SupportedMimeTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (e *MarkdownExtractor) Priority() int {
	return 50 // Format-specific
}

var (
	mdHeaderRe = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	mdFenceRe  = regexp.MustCompile("(?ms)^```([A-Za-z0-9_+-]*)\\s*\\n(.*?)^```\\s*$")
)

func (e *MarkdownExtractor) Extract(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
	content := normalizeText(decodeText(data))

	// Remove excessive blank lines (more than 2 consecutive)
	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	stats := textStats(content)
	var meta domain.Metadata

	for _, m := range mdHeaderRe.FindAllStringSubmatch(content, -1) {
		stats.Headers = append(stats.Headers, m[2])
		if meta.Title == nil && len(m[1]) == 1 {
			meta.Title = domain.StringPtr(m[2])
		}
	}
	for _, m := range mdLinkRe.FindAllStringSubmatch(content, -1) {
		stats.Links = append(stats.Links, [2]string{m[1], m[2]})
	}
	for _, m := range mdFenceRe.FindAllStringSubmatch(content, -1) {
		stats.CodeBlocks = append(stats.CodeBlocks, [2]string{m[1], strings.TrimRight(m[2], "\n")})
	}
	meta.Format = stats

	return &driven.Extraction{Result: &domain.ExtractionResult{
		Content:  content,
		MimeType: mimeType,
		Metadata: meta,
		Tables:   parseMarkdownTables(content),
	}}, nil
}

// decodeText converts raw bytes to a valid UTF-8 string.
func decodeText(data []byte) string {
	data = trimBOM(data)
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// normalizeText normalizes line endings and trims surrounding whitespace.
func normalizeText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content)
}

func textStats(content string) *domain.TextMetadata {
	lines := 0
	if content != "" {
		lines = strings.Count(content, "\n") + 1
	}
	return &domain.TextMetadata{
		LineCount:      lines,
		WordCount:      len(strings.Fields(content)),
		CharacterCount: utf8.RuneCountInString(content),
	}
}
