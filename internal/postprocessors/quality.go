package postprocessors

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StagedPostProcessor = (*QualityProcessor)(nil)

// QualityProcessor normalizes whitespace and scores text quality. It only
// runs when enable_quality_processing is set.
type QualityProcessor struct{}

// NewQualityProcessor creates a new quality processor.
func NewQualityProcessor() *QualityProcessor {
	return &QualityProcessor{}
}

func (q *QualityProcessor) Name() string { return "quality" }

func (q *QualityProcessor) ProcessingStage() driven.ProcessingStage { return driven.StageEarly }

// Process normalizes whitespace page by page and records quality_score.
func (q *QualityProcessor) Process(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
	if cfg != nil && !cfg.EnableQualityProcessing {
		return result, nil
	}

	result.RewriteContent(normalizeWhitespace)
	result.Metadata.SetAdditional("quality_score", QualityScore(result.Content))
	return result, nil
}

// normalizeWhitespace collapses runs of spaces, trims lines and removes
// excessive blank lines.
func normalizeWhitespace(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\u00a0'
		}), " ")
	}
	content = strings.Join(lines, "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(content)
}

// QualityScore rates extracted text in [0, 1] from the share of printable
// runes and word-like tokens. Empty text scores 0.
func QualityScore(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	score := 0.6*printableRatio(text) + 0.4*wordlikeRatio(text)
	return math.Round(score*1000) / 1000
}

// printableRatio excludes private use runes, U+FFFD and control characters
// other than whitespace.
func printableRatio(text string) float64 {
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	switch {
	case r >= 0xE000 && r <= 0xF8FF:
		return true
	case r == 0xFFFD:
		return true
	case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
		return true
	}
	return false
}

// wordlikeRatio is the share of tokens between 2 and 15 runes long.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
