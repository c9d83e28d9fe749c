package postprocessors

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.StagedPostProcessor = (*LanguageDetector)(nil)

// minDetectRunes is the shortest text worth running detection on.
const minDetectRunes = 12

// LanguageDetector fills detected_languages with ISO 639-3 codes.
type LanguageDetector struct{}

// NewLanguageDetector creates a new language detector.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{}
}

func (l *LanguageDetector) Name() string { return "language_detection" }

func (l *LanguageDetector) ProcessingStage() driven.ProcessingStage { return driven.StageMiddle }

func (l *LanguageDetector) Process(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
	if cfg == nil || cfg.LanguageDetection == nil || !cfg.LanguageDetection.Enabled {
		return result, nil
	}
	opts := cfg.LanguageDetection

	options := detectOptions(opts.Languages)

	var langs []string
	if opts.DetectMultiple {
		langs = detectMultiple(result.Content, opts.MinConfidence, options)
	} else if lang, ok := detectOne(result.Content, opts.MinConfidence, options); ok {
		langs = []string{lang}
	}
	if len(langs) == 0 {
		return result, nil
	}

	result.DetectedLanguages = langs
	if result.Metadata.Language == nil {
		result.Metadata.Language = domain.StringPtr(langs[0])
	}
	return result, nil
}

// detectOptions whitelists the known codes in languages. Unknown codes are
// ignored; an empty list leaves every language eligible.
func detectOptions(languages []string) whatlanggo.Options {
	var options whatlanggo.Options
	for _, code := range languages {
		code = strings.ToLower(strings.TrimSpace(code))
		lang := whatlanggo.CodeToLang(code)
		if lang.Iso6393() != code {
			continue
		}
		if options.Whitelist == nil {
			options.Whitelist = make(map[whatlanggo.Lang]bool)
		}
		options.Whitelist[lang] = true
	}
	return options
}

func detectOne(text string, minConfidence float64, options whatlanggo.Options) (string, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minDetectRunes {
		return "", false
	}
	info := whatlanggo.DetectWithOptions(text, options)
	if info.Lang < 0 || info.Confidence < minConfidence {
		return "", false
	}
	code := info.Lang.Iso6393()
	return code, code != ""
}

// detectMultiple detects per paragraph and orders languages by how much of
// the text they cover.
func detectMultiple(text string, minConfidence float64, options whatlanggo.Options) []string {
	coverage := make(map[string]int)
	for _, para := range strings.Split(text, "\n\n") {
		if lang, ok := detectOne(para, minConfidence, options); ok {
			coverage[lang] += len(para)
		}
	}

	langs := make([]string, 0, len(coverage))
	for lang := range coverage {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if coverage[langs[i]] != coverage[langs[j]] {
			return coverage[langs[i]] > coverage[langs[j]]
		}
		return langs[i] < langs[j]
	})
	return langs
}
