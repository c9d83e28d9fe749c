package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// OutputFormat is the textual format of ExtractionResult.Content.
type OutputFormat string

const (
	OutputPlain    OutputFormat = "plain"
	OutputMarkdown OutputFormat = "markdown"
	OutputDjot     OutputFormat = "djot"
	OutputHTML     OutputFormat = "html"
)

// ResultFormat selects the result layout.
type ResultFormat string

const (
	ResultUnified      ResultFormat = "unified"
	ResultElementBased ResultFormat = "element_based"
)

// KeywordAlgorithm selects the keyword extraction algorithm.
type KeywordAlgorithm string

const (
	KeywordYake KeywordAlgorithm = "yake"
	KeywordRake KeywordAlgorithm = "rake"
)

// DefaultPageMarkerFormat is the page marker inserted when page markers are enabled.
const DefaultPageMarkerFormat = "\n\n<!-- PAGE {page_num} -->\n\n"

// DefaultMaxConcurrentExtractions bounds batch fan-out when unset.
const DefaultMaxConcurrentExtractions = 4

// ExtractionConfig is the resolved per-call configuration. Nil sub-configs
// disable the corresponding feature.
type ExtractionConfig struct {
	UseCache                 bool                     `json:"use_cache"`
	EnableQualityProcessing  bool                     `json:"enable_quality_processing"`
	ForceOCR                 bool                     `json:"force_ocr"`
	OCR                      *OcrConfig               `json:"ocr,omitempty"`
	Chunking                 *ChunkingConfig          `json:"chunking,omitempty"`
	Images                   *ImageExtractionConfig   `json:"images,omitempty"`
	PdfOptions               *PdfConfig               `json:"pdf_options,omitempty"`
	LanguageDetection        *LanguageDetectionConfig `json:"language_detection,omitempty"`
	Keywords                 *KeywordConfig           `json:"keywords,omitempty"`
	Postprocessor            *PostProcessorConfig     `json:"postprocessor,omitempty"`
	Pages                    *PageConfig              `json:"pages,omitempty"`
	OutputFormat             OutputFormat             `json:"output_format"`
	ResultFormat             ResultFormat             `json:"result_format"`
	MaxConcurrentExtractions int                      `json:"max_concurrent_extractions"`
}

// OcrConfig selects and tunes the OCR backend.
type OcrConfig struct {
	Backend         string            `json:"backend"`
	Language        string            `json:"language"`
	TesseractConfig *TesseractConfig  `json:"tesseract_config,omitempty"`
	PaddleOcrConfig json.RawMessage   `json:"paddle_ocr_config,omitempty"`
	ElementConfig   *OcrElementConfig `json:"element_config,omitempty"`
}

// TesseractConfig carries Tesseract-specific options.
type TesseractConfig struct {
	PSM                  int    `json:"psm"`
	CharWhitelist        string `json:"tessedit_char_whitelist,omitempty"`
	PreserveSpaces       bool   `json:"preserve_interword_spaces"`
	EnableTableDetection bool   `json:"enable_table_detection"`
}

// OcrElementConfig controls granular OCR element output.
type OcrElementConfig struct {
	IncludeElements bool     `json:"include_elements"`
	// MinLevel is the finest level kept; empty means word.
	MinLevel        OcrLevel `json:"min_level"`
	MinConfidence   float64  `json:"min_confidence"`
	BuildHierarchy  bool     `json:"build_hierarchy"`
}

// ChunkingConfig controls the chunker.
type ChunkingConfig struct {
	MaxChars          int              `json:"max_chars"`
	MaxOverlap        int              `json:"max_overlap"`
	RespectSentences  bool             `json:"respect_sentences"`
	RespectParagraphs bool             `json:"respect_paragraphs"`
	Embedding         *EmbeddingConfig `json:"embedding,omitempty"`
}

// EmbeddingConfig enables chunk embeddings.
type EmbeddingConfig struct {
	Model     string `json:"model,omitempty"`
	BatchSize int    `json:"batch_size"`
	Normalize bool   `json:"normalize"`
}

// ImageExtractionConfig controls image extraction and OCR preprocessing.
type ImageExtractionConfig struct {
	ExtractImages     bool `json:"extract_images"`
	TargetDPI         int  `json:"target_dpi"`
	MaxImageDimension int  `json:"max_image_dimension"`
	AutoAdjustDPI     bool `json:"auto_adjust_dpi"`
	MinDPI            int  `json:"min_dpi"`
	MaxDPI            int  `json:"max_dpi"`
}

// PdfConfig carries PDF options.
type PdfConfig struct {
	ExtractImages   bool             `json:"extract_images"`
	Passwords       []string         `json:"passwords,omitempty"`
	ExtractMetadata bool             `json:"extract_metadata"`
	Hierarchy       *HierarchyConfig `json:"hierarchy,omitempty"`
}

// HierarchyConfig controls heading hierarchy detection in PDFs.
type HierarchyConfig struct {
	Enabled     bool `json:"enabled"`
	KClusters   int  `json:"k_clusters"`
	IncludeBBox bool `json:"include_bbox"`
}

// LanguageDetectionConfig controls the language detection enricher.
type LanguageDetectionConfig struct {
	Enabled        bool     `json:"enabled"`
	MinConfidence  float64  `json:"min_confidence"`
	DetectMultiple bool     `json:"detect_multiple"`
	// Languages restricts candidates to these ISO 639-3 codes when set.
	Languages      []string `json:"languages,omitempty"`
}

// KeywordConfig controls the keyword enricher.
type KeywordConfig struct {
	Algorithm   KeywordAlgorithm `json:"algorithm"`
	MaxKeywords int              `json:"max_keywords"`
	MinScore    float64          `json:"min_score"`
	NgramRange  [2]int           `json:"ngram_range"`
	Language    string           `json:"language,omitempty"`
	YakeParams  *YakeParams      `json:"yake_params,omitempty"`
	RakeParams  *RakeParams      `json:"rake_params,omitempty"`
}

// YakeParams tunes YAKE-style scoring.
type YakeParams struct {
	WindowSize int `json:"window_size"`
}

// RakeParams tunes RAKE scoring.
type RakeParams struct {
	MinWordLength     int `json:"min_word_length"`
	MaxWordsPerPhrase int `json:"max_words_per_phrase"`
}

// PostProcessorConfig enables post-processors by name.
type PostProcessorConfig struct {
	Enabled            bool     `json:"enabled"`
	EnabledProcessors  []string `json:"enabled_processors,omitempty"`
	DisabledProcessors []string `json:"disabled_processors,omitempty"`
}

// PageConfig controls per-page output.
type PageConfig struct {
	ExtractPages      bool   `json:"extract_pages"`
	InsertPageMarkers bool   `json:"insert_page_markers"`
	MarkerFormat      string `json:"marker_format"`
}

// DefaultExtractionConfig returns the configuration used when none is given.
func DefaultExtractionConfig() *ExtractionConfig {
	return &ExtractionConfig{
		UseCache:                 true,
		EnableQualityProcessing:  true,
		OutputFormat:             OutputPlain,
		ResultFormat:             ResultUnified,
		MaxConcurrentExtractions: DefaultMaxConcurrentExtractions,
	}
}

func DefaultOcrConfig() OcrConfig {
	return OcrConfig{Backend: "tesseract", Language: "eng"}
}

func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{PSM: 3}
}

func DefaultOcrElementConfig() OcrElementConfig {
	return OcrElementConfig{MinLevel: OcrLevelWord}
}

func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{MaxChars: 512, MaxOverlap: 50, RespectSentences: true, RespectParagraphs: true}
}

func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{BatchSize: 32}
}

func DefaultImageExtractionConfig() ImageExtractionConfig {
	return ImageExtractionConfig{
		ExtractImages:     true,
		TargetDPI:         300,
		MaxImageDimension: 4096,
		AutoAdjustDPI:     true,
		MinDPI:            72,
		MaxDPI:            600,
	}
}

func DefaultPdfConfig() PdfConfig {
	return PdfConfig{ExtractMetadata: true}
}

func DefaultHierarchyConfig() HierarchyConfig {
	return HierarchyConfig{Enabled: true, KClusters: 6}
}

func DefaultLanguageDetectionConfig() LanguageDetectionConfig {
	return LanguageDetectionConfig{Enabled: true, MinConfidence: 0.8}
}

func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{Algorithm: KeywordYake, MaxKeywords: 10, NgramRange: [2]int{1, 3}}
}

func DefaultPostProcessorConfig() PostProcessorConfig {
	return PostProcessorConfig{Enabled: true}
}

func DefaultPageConfig() PageConfig {
	return PageConfig{MarkerFormat: DefaultPageMarkerFormat}
}

// Partial JSON sub-configs decode over their defaults.

func (c *OcrConfig) UnmarshalJSON(data []byte) error {
	type alias OcrConfig
	a := alias(DefaultOcrConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = OcrConfig(a)
	return nil
}

func (c *TesseractConfig) UnmarshalJSON(data []byte) error {
	type alias TesseractConfig
	a := alias(DefaultTesseractConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = TesseractConfig(a)
	return nil
}

func (c *OcrElementConfig) UnmarshalJSON(data []byte) error {
	type alias OcrElementConfig
	a := alias(DefaultOcrElementConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = OcrElementConfig(a)
	return nil
}

func (c *ChunkingConfig) UnmarshalJSON(data []byte) error {
	type alias ChunkingConfig
	a := alias(DefaultChunkingConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ChunkingConfig(a)
	return nil
}

func (c *EmbeddingConfig) UnmarshalJSON(data []byte) error {
	type alias EmbeddingConfig
	a := alias(DefaultEmbeddingConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = EmbeddingConfig(a)
	return nil
}

func (c *ImageExtractionConfig) UnmarshalJSON(data []byte) error {
	type alias ImageExtractionConfig
	a := alias(DefaultImageExtractionConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ImageExtractionConfig(a)
	return nil
}

func (c *PdfConfig) UnmarshalJSON(data []byte) error {
	type alias PdfConfig
	a := alias(DefaultPdfConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = PdfConfig(a)
	return nil
}

func (c *HierarchyConfig) UnmarshalJSON(data []byte) error {
	type alias HierarchyConfig
	a := alias(DefaultHierarchyConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = HierarchyConfig(a)
	return nil
}

func (c *LanguageDetectionConfig) UnmarshalJSON(data []byte) error {
	type alias LanguageDetectionConfig
	a := alias(DefaultLanguageDetectionConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = LanguageDetectionConfig(a)
	return nil
}

func (c *KeywordConfig) UnmarshalJSON(data []byte) error {
	type alias KeywordConfig
	a := alias(DefaultKeywordConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = KeywordConfig(a)
	return nil
}

func (c *PostProcessorConfig) UnmarshalJSON(data []byte) error {
	type alias PostProcessorConfig
	a := alias(DefaultPostProcessorConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = PostProcessorConfig(a)
	return nil
}

func (c *PageConfig) UnmarshalJSON(data []byte) error {
	type alias PageConfig
	a := alias(DefaultPageConfig())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = PageConfig(a)
	return nil
}

// ParseExtractionConfig decodes a JSON config over DefaultExtractionConfig and validates it.
func ParseExtractionConfig(data []byte) (*ExtractionConfig, error) {
	cfg := DefaultExtractionConfig()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid extraction config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects out-of-range values with a KindValidation error.
func (c *ExtractionConfig) Validate() error {
	if c.MaxConcurrentExtractions < 0 {
		return NewValidationError("max_concurrent_extractions must not be negative")
	}
	switch c.OutputFormat {
	case "", OutputPlain, OutputMarkdown, OutputDjot, OutputHTML:
	default:
		return NewValidationError(fmt.Sprintf("invalid output_format %q", c.OutputFormat))
	}
	switch c.ResultFormat {
	case "", ResultUnified, ResultElementBased:
	default:
		return NewValidationError(fmt.Sprintf("invalid result_format %q", c.ResultFormat))
	}
	if ch := c.Chunking; ch != nil {
		if ch.MaxChars <= 0 {
			return NewValidationError("chunking.max_chars must be positive")
		}
		if ch.MaxOverlap < 0 || ch.MaxOverlap >= ch.MaxChars {
			return NewValidationError("chunking.max_overlap must be in [0, max_chars)")
		}
		if ch.Embedding != nil && ch.Embedding.BatchSize <= 0 {
			return NewValidationError("chunking.embedding.batch_size must be positive")
		}
	}
	if im := c.Images; im != nil {
		if im.TargetDPI <= 0 || im.MinDPI <= 0 || im.MaxDPI <= 0 {
			return NewValidationError("images dpi values must be positive")
		}
		if im.MinDPI > im.MaxDPI {
			return NewValidationError("images.min_dpi must not exceed images.max_dpi")
		}
		if im.MaxImageDimension <= 0 {
			return NewValidationError("images.max_image_dimension must be positive")
		}
	}
	if ld := c.LanguageDetection; ld != nil {
		if ld.MinConfidence < 0 || ld.MinConfidence > 1 {
			return NewValidationError("language_detection.min_confidence must be in [0, 1]")
		}
	}
	if kw := c.Keywords; kw != nil {
		if kw.Algorithm != KeywordYake && kw.Algorithm != KeywordRake {
			return NewValidationError(fmt.Sprintf("invalid keywords.algorithm %q", kw.Algorithm))
		}
		if kw.MaxKeywords <= 0 {
			return NewValidationError("keywords.max_keywords must be positive")
		}
		if kw.NgramRange[0] < 1 || kw.NgramRange[0] > kw.NgramRange[1] {
			return NewValidationError("keywords.ngram_range must satisfy 1 <= min <= max")
		}
	}
	if o := c.OCR; o != nil {
		if o.Backend == "" {
			return NewValidationError("ocr.backend must not be empty")
		}
		if ec := o.ElementConfig; ec != nil {
			if ec.MinLevel != "" && !ec.MinLevel.Valid() {
				return NewValidationError(fmt.Sprintf("invalid ocr.element_config.min_level %q", ec.MinLevel))
			}
			if ec.MinConfidence < 0 || ec.MinConfidence > 1 {
				return NewValidationError("ocr.element_config.min_confidence must be in [0, 1]")
			}
		}
	}
	return nil
}

// ProcessorEnabled reports whether the named post-processor should run.
// The deny list wins for names it contains; a non-empty allow list otherwise
// restricts execution to its names.
func (c *PostProcessorConfig) ProcessorEnabled(name string) bool {
	if c == nil {
		return true
	}
	if !c.Enabled {
		return false
	}
	if slices.Contains(c.DisabledProcessors, name) {
		return false
	}
	if len(c.EnabledProcessors) > 0 {
		return slices.Contains(c.EnabledProcessors, name)
	}
	return true
}

// EffectiveConcurrency returns MaxConcurrentExtractions or the default when unset.
func (c *ExtractionConfig) EffectiveConcurrency() int {
	if c == nil || c.MaxConcurrentExtractions <= 0 {
		return DefaultMaxConcurrentExtractions
	}
	return c.MaxConcurrentExtractions
}

// Clone returns a deep copy via the JSON encoding.
func (c *ExtractionConfig) Clone() *ExtractionConfig {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		cp := *c
		return &cp
	}
	out := &ExtractionConfig{}
	if err := json.Unmarshal(data, out); err != nil {
		cp := *c
		return &cp
	}
	return out
}
