package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-extract/internal/cache"
	"github.com/custodia-labs/sercha-extract/internal/chunking"
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/extractors"
	"github.com/custodia-labs/sercha-extract/internal/ocr"
	"github.com/custodia-labs/sercha-extract/internal/runtime"
	"github.com/custodia-labs/sercha-extract/internal/worker"
)

// Ensure extractionService implements ExtractionService
var _ driving.ExtractionService = (*extractionService)(nil)

// extractionService runs the extraction pipeline
type extractionService struct {
	plugins *runtime.Plugins
	cache   *cache.Cache
	sources []driven.DocumentSource
	logger  *slog.Logger
}

// NewExtractionService creates a new ExtractionService. A nil cache gets an
// in-process cache without a shared store.
func NewExtractionService(
	plugins *runtime.Plugins,
	resultCache *cache.Cache,
	sources []driven.DocumentSource,
	logger *slog.Logger,
) driving.ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if resultCache == nil {
		resultCache = cache.New(cache.Options{Logger: logger})
	}
	return &extractionService{
		plugins: plugins,
		cache:   resultCache,
		sources: sources,
		logger:  logger.With("component", "extraction"),
	}
}

// ExtractBytes extracts a single in-memory document
func (s *extractionService) ExtractBytes(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (result *domain.ExtractionResult, err error) {
	defer domain.Recover(&err)

	if cfg == nil {
		cfg = domain.DefaultExtractionConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mimeType = extractors.NormalizeMimeType(mimeType)
	if mimeType == "" {
		mimeType = extractors.DetectMimeType(data, "")
	}
	logger := s.logger.With("mime_type", mimeType)

	if !cfg.UseCache {
		return s.run(ctx, data, mimeType, cfg, logger)
	}

	key, err := cache.Key(data, mimeType, cfg)
	if err != nil {
		return nil, err
	}
	result, hit, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*domain.ExtractionResult, error) {
		return s.run(ctx, data, mimeType, cfg, logger)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		logger.Debug("cache hit", "cache_key", key)
	}
	return result, nil
}

// ExtractFile fetches a document from a path or URI and extracts it
func (s *extractionService) ExtractFile(ctx context.Context, location, mimeType string, cfg *domain.ExtractionConfig) (result *domain.ExtractionResult, err error) {
	defer domain.Recover(&err)

	data, hint, err := s.fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if mimeType == "" {
		mimeType = extractors.NormalizeMimeType(hint)
	}
	if mimeType == "" {
		mimeType = extractors.DetectMimeType(data, location)
	}
	return s.ExtractBytes(ctx, data, mimeType, cfg)
}

// ExtractBytesAsync runs ExtractBytes in the background
func (s *extractionService) ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) <-chan driving.AsyncResult {
	out := make(chan driving.AsyncResult, 1)
	go func() {
		defer close(out)
		result, err := s.ExtractBytes(ctx, data, mimeType, cfg)
		out <- driving.AsyncResult{Result: result, Err: err}
	}()
	return out
}

// BatchExtractBytes extracts documents concurrently, keeping input order
func (s *extractionService) BatchExtractBytes(ctx context.Context, docs []driving.Document, cfg *domain.ExtractionConfig) ([]*domain.ExtractionResult, error) {
	return s.batch(ctx, len(docs), cfg, func(ctx context.Context, i int) (*domain.ExtractionResult, string, error) {
		doc := docs[i]
		mimeType := doc.MimeType
		if mimeType == "" {
			mimeType = extractors.DetectMimeType(doc.Data, doc.Name)
		}
		result, err := s.ExtractBytes(ctx, doc.Data, mimeType, cfg)
		return result, mimeType, err
	})
}

// BatchExtractFiles extracts paths or URIs concurrently, keeping input order
func (s *extractionService) BatchExtractFiles(ctx context.Context, locations []string, cfg *domain.ExtractionConfig) ([]*domain.ExtractionResult, error) {
	return s.batch(ctx, len(locations), cfg, func(ctx context.Context, i int) (*domain.ExtractionResult, string, error) {
		result, err := s.ExtractFile(ctx, locations[i], "", cfg)
		return result, extractors.MimeTypeFromExtension(locations[i]), err
	})
}

type batchFunc func(ctx context.Context, i int) (*domain.ExtractionResult, string, error)

// batch fans n documents out over the worker pool. Failures never abort the
// batch; they become error results at their index. Documents not started
// before ctx ends get the context error.
func (s *extractionService) batch(ctx context.Context, n int, cfg *domain.ExtractionConfig, fn batchFunc) ([]*domain.ExtractionResult, error) {
	if cfg == nil {
		cfg = domain.DefaultExtractionConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]*domain.ExtractionResult, n)
	started := time.Now()
	pool := worker.NewPool(cfg.EffectiveConcurrency(), s.logger)
	runErr := pool.Run(ctx, n, func(ctx context.Context, i int) {
		result, mimeType, err := fn(ctx, i)
		if err != nil {
			s.logger.Warn("batch document failed", "index", i, "mime_type", mimeType, "error", err)
			results[i] = errorResult(err, mimeType)
			return
		}
		results[i] = result
	})

	for i := range results {
		if results[i] == nil {
			results[i] = errorResult(ctx.Err(), "")
		}
	}
	s.logger.Info("batch extraction finished", "documents", n, "duration", time.Since(started))
	return results, runErr
}

// errorResult is the placeholder for a failed batch document
func errorResult(err error, mimeType string) *domain.ExtractionResult {
	if err == nil {
		err = context.Canceled
	}
	return &domain.ExtractionResult{
		MimeType: mimeType,
		Tables:   []domain.Table{},
		Metadata: domain.Metadata{Error: &domain.ErrorMetadata{
			ErrorType: domain.KindOf(err).TypeName(),
			Message:   err.Error(),
		}},
	}
}

// Chunk splits arbitrary text with the chunker
func (s *extractionService) Chunk(ctx context.Context, content string, cfg *domain.ChunkingConfig) ([]domain.Chunk, error) {
	if cfg == nil {
		d := domain.DefaultChunkingConfig()
		cfg = &d
	}
	chunks, err := chunking.Chunk(content, *cfg, nil)
	if err != nil {
		return nil, err
	}
	if cfg.Embedding != nil {
		if err := chunking.Embed(ctx, chunks, s.plugins.EmbeddingService(), *cfg.Embedding); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// SupportedMimeTypes lists every MIME type with an extractor
func (s *extractionService) SupportedMimeTypes() []string {
	return s.plugins.Extractors.List()
}

// CacheStats summarises the result cache
func (s *extractionService) CacheStats(ctx context.Context) (domain.CacheStats, error) {
	return s.cache.Stats(), nil
}

// ClearCache drops every cached result
func (s *extractionService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func (s *extractionService) fetch(ctx context.Context, location string) ([]byte, string, error) {
	for _, src := range s.sources {
		if src.Supports(location) {
			return src.Fetch(ctx, location)
		}
	}
	return nil, "", domain.NewIOError(fmt.Sprintf("no document source for %q", location), nil)
}

// run executes the pipeline for one document. The returned result is owned
// by the caller.
func (s *extractionService) run(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig, logger *slog.Logger) (*domain.ExtractionResult, error) {
	started := time.Now()

	extractor, err := s.plugins.Extractors.Get(mimeType)
	if err != nil {
		return nil, err
	}
	ext, err := invokeExtractor(ctx, extractor, data, mimeType, cfg)
	if err != nil {
		return nil, err
	}
	if ext == nil || ext.Result == nil {
		return nil, domain.NewParsingError(fmt.Sprintf("extractor %q returned no result", extractor.Name()), nil)
	}
	result := ext.Result
	if result.MimeType == "" {
		result.MimeType = mimeType
	}
	if result.Tables == nil {
		result.Tables = []domain.Table{}
	}

	if s.shouldOCR(ext, mimeType, cfg) {
		if err := s.applyOCR(ctx, result, ext, data, mimeType, cfg); err != nil {
			return nil, err
		}
	}
	if err := s.recognizeImages(ctx, result, cfg, logger); err != nil {
		return nil, err
	}
	if err := validateOcrHierarchy(result); err != nil {
		return nil, err
	}

	if cfg.Pages != nil && cfg.Pages.InsertPageMarkers && len(result.Pages) > 0 {
		setPages(result, cfg.Pages)
	}

	result, err = s.plugins.PostProcessors.Run(ctx, result, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.plugins.Validators.Run(ctx, result, cfg); err != nil {
		return nil, err
	}

	if err := applyOutputFormat(result, cfg.OutputFormat); err != nil {
		logger.Warn("output format conversion failed", "output_format", cfg.OutputFormat, "error", err)
		result.Metadata.SetAdditional("output_format_error", err.Error())
	}

	if cfg.Chunking != nil {
		if err := s.chunk(ctx, result, cfg.Chunking, logger); err != nil {
			return nil, err
		}
	}

	if cfg.Pages == nil || !cfg.Pages.ExtractPages {
		result.Pages = nil
	}

	logger.Debug("document extracted", "extractor", extractor.Name(), "content_bytes", len(result.Content),
		"duration", time.Since(started))
	return result, nil
}

// validateOcrHierarchy rejects OCR elements, on the document or its images,
// whose parent_id does not resolve within the same element list.
func validateOcrHierarchy(result *domain.ExtractionResult) error {
	if err := ocr.ValidateHierarchy(result.OcrElements); err != nil {
		return err
	}
	for _, img := range result.Images {
		if img.OcrResult == nil {
			continue
		}
		if err := ocr.ValidateHierarchy(img.OcrResult.OcrElements); err != nil {
			return err
		}
	}
	return nil
}

func invokeExtractor(ctx context.Context, e driven.DocumentExtractor, data []byte, mimeType string, cfg *domain.ExtractionConfig) (ext *driven.Extraction, err error) {
	defer domain.Recover(&err)
	return e.Extract(ctx, data, mimeType, cfg)
}

// shouldOCR reports whether OCR runs. A document that needs OCR is only
// recognised when an OCR backend is configured; force_ocr applies the
// default backend to PDFs and images.
func (s *extractionService) shouldOCR(ext *driven.Extraction, mimeType string, cfg *domain.ExtractionConfig) bool {
	if cfg.ForceOCR {
		return ext.NeedsOCR || len(ext.OCRInputs) > 0 || ocrCapable(mimeType)
	}
	return ext.NeedsOCR && cfg.OCR != nil
}

func ocrCapable(mimeType string) bool {
	return mimeType == "application/pdf" || strings.HasPrefix(mimeType, "image/")
}

func ocrConfig(cfg *domain.ExtractionConfig) *domain.OcrConfig {
	if cfg.OCR != nil {
		return cfg.OCR
	}
	d := domain.DefaultOcrConfig()
	return &d
}

// recognized is the folded output of OCR over one or more images
type recognized struct {
	pages         []domain.PageContent
	tables        []domain.Table
	elements      []domain.OcrElement
	metadata      *domain.OcrMetadata
	preprocessing *domain.ImagePreprocessingMetadata
}

// recognize runs the configured backend on every input, grouping text by
// page in page order.
func (s *extractionService) recognize(ctx context.Context, inputs []driven.OCRInput, cfg *domain.ExtractionConfig) (*recognized, error) {
	ocrCfg := ocrConfig(cfg)
	pre := ocr.NewPreprocessor(cfg.Images)
	out := &recognized{}
	texts := make(map[int][]string)

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := max(in.PageNumber, 1)
		image, imageMime := in.Data, in.MimeType
		if strings.HasPrefix(in.MimeType, "image/") {
			var meta *domain.ImagePreprocessingMetadata
			image, imageMime, meta = pre.Process(in.Data, in.MimeType, in.DPI)
			if out.preprocessing == nil {
				out.preprocessing = meta
			}
		}

		raw, err := s.plugins.OCR.Invoke(ctx, ocrCfg.Backend, image, driven.OcrRequest{
			Language:   ocrCfg.Language,
			MimeType:   imageMime,
			PageNumber: page,
			Config:     ocrCfg,
		})
		if err != nil {
			return nil, err
		}

		texts[page] = append(texts[page], raw.Content)
		for _, t := range raw.Tables {
			if t.PageNumber == 0 {
				t.PageNumber = page
			}
			out.tables = append(out.tables, t)
		}
		for _, el := range raw.Elements {
			if el.PageNumber == 0 {
				el.PageNumber = page
			}
			out.elements = append(out.elements, el)
		}
		if out.metadata == nil && raw.Metadata != nil {
			m := *raw.Metadata
			out.metadata = &m
		}
	}

	pageNumbers := make([]int, 0, len(texts))
	for p := range texts {
		pageNumbers = append(pageNumbers, p)
	}
	slices.Sort(pageNumbers)
	for _, p := range pageNumbers {
		out.pages = append(out.pages, domain.PageContent{
			PageNumber: p,
			Content:    strings.Join(texts[p], "\n"),
			Tables:     []domain.Table{},
		})
	}

	if out.metadata == nil {
		out.metadata = &domain.OcrMetadata{}
	}
	out.metadata.Backend = ocrCfg.Backend
	if out.metadata.Language == "" {
		out.metadata.Language = ocrCfg.Language
	}
	out.metadata.TableCount = len(out.tables)

	if ec := ocrCfg.ElementConfig; ec != nil && ec.IncludeElements {
		ocr.AssignElementIDs(out.elements)
		out.elements = ocr.FilterElements(out.elements, ec)
	} else {
		out.elements = nil
	}
	return out, nil
}

// applyOCR replaces the content of the document with recognised text.
// Pages the document already reported keep their other fields.
func (s *extractionService) applyOCR(ctx context.Context, result *domain.ExtractionResult, ext *driven.Extraction, data []byte, mimeType string, cfg *domain.ExtractionConfig) error {
	inputs := ext.OCRInputs
	if len(inputs) == 0 {
		inputs = []driven.OCRInput{{Data: data, MimeType: mimeType, PageNumber: 1}}
	}
	rec, err := s.recognize(ctx, inputs, cfg)
	if err != nil {
		return err
	}

	if len(result.Pages) == 0 {
		result.Pages = rec.pages
	} else {
		byPage := make(map[int]string, len(rec.pages))
		for _, p := range rec.pages {
			byPage[p.PageNumber] = p.Content
		}
		for i := range result.Pages {
			if text, ok := byPage[result.Pages[i].PageNumber]; ok {
				result.Pages[i].Content = text
			}
		}
	}
	setPages(result, nil)

	result.Tables = append(result.Tables, rec.tables...)
	result.OcrElements = rec.elements
	if rec.preprocessing != nil {
		result.Metadata.ImagePreprocessing = rec.preprocessing
	}
	if result.Metadata.Format == nil {
		result.Metadata.Format = rec.metadata
	} else {
		result.Metadata.SetAdditional("ocr_backend", rec.metadata.Backend)
	}
	return nil
}

// recognizeImages attaches a nested OCR result to every extracted image when
// image extraction and OCR are both configured. A failing image is skipped.
func (s *extractionService) recognizeImages(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig, logger *slog.Logger) error {
	if cfg.OCR == nil || cfg.Images == nil || !cfg.Images.ExtractImages {
		return nil
	}
	for i := range result.Images {
		img := &result.Images[i]
		if img.OcrResult != nil || img.IsMask {
			continue
		}
		page := 1
		if img.PageNumber != nil {
			page = *img.PageNumber
		}
		input := driven.OCRInput{Data: img.Data, MimeType: extractors.MimeTypeFromExtension("image." + img.Format), PageNumber: page}
		rec, err := s.recognize(ctx, []driven.OCRInput{input}, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("image ocr failed", "image_index", img.ImageIndex, "error", err)
			continue
		}

		nested := &domain.ExtractionResult{
			MimeType:    "text/plain",
			Tables:      rec.tables,
			OcrElements: rec.elements,
			Metadata:    domain.Metadata{Format: rec.metadata, ImagePreprocessing: rec.preprocessing},
		}
		if nested.Tables == nil {
			nested.Tables = []domain.Table{}
		}
		nested.Content, _ = domain.AssemblePages(rec.pages, nil)
		img.OcrResult = nested
	}
	return nil
}

// setPages rebuilds the content and page boundaries from result.Pages.
func setPages(result *domain.ExtractionResult, cfg *domain.PageConfig) {
	content, boundaries := domain.AssemblePages(result.Pages, cfg)
	result.Content = content
	if result.Metadata.Pages == nil {
		result.Metadata.Pages = &domain.PageStructure{TotalCount: len(result.Pages), UnitType: domain.PageUnitPage}
	}
	result.Metadata.Pages.Boundaries = boundaries
}

// chunk cuts the final content and embeds the chunks. Failures are recorded
// in the metadata; only cancellation is returned.
func (s *extractionService) chunk(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ChunkingConfig, logger *slog.Logger) error {
	var boundaries []domain.PageBoundary
	if result.Metadata.Pages != nil {
		boundaries = result.Metadata.Pages.Boundaries
	}
	chunks, err := chunking.Chunk(result.Content, *cfg, boundaries)
	if err != nil {
		logger.Warn("chunking failed", "error", err)
		result.Metadata.SetAdditional("chunking_error", err.Error())
		return nil
	}
	result.Chunks = chunks
	result.Metadata.SetAdditional("chunk_count", len(chunks))

	if cfg.Embedding == nil || len(chunks) == 0 {
		return nil
	}
	if err := chunking.Embed(ctx, result.Chunks, s.plugins.EmbeddingService(), *cfg.Embedding); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		for i := range result.Chunks {
			result.Chunks[i].Embedding = nil
		}
		logger.Warn("chunk embedding failed", "error", err)
		result.Metadata.SetAdditional("embedding_error", err.Error())
		return nil
	}
	result.Metadata.SetAdditional("embeddings_generated", true)
	return nil
}
