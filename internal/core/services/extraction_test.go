package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/runtime"
)

func newTestService(t *testing.T, sources ...driven.DocumentSource) (driving.ExtractionService, *runtime.Plugins) {
	t.Helper()
	plugins := runtime.DefaultPlugins(nil, nil)
	return NewExtractionService(plugins, nil, sources, nil), plugins
}

func noCache() *domain.ExtractionConfig {
	cfg := domain.DefaultExtractionConfig()
	cfg.UseCache = false
	return cfg
}

func pagedExtractor(pages ...string) *mocks.MockExtractor {
	ex := mocks.NewMockExtractor("paged", "application/x-paged")
	ex.ExtractFn = func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
		result := &domain.ExtractionResult{MimeType: mimeType, Tables: []domain.Table{}}
		for i, p := range pages {
			result.Pages = append(result.Pages, domain.PageContent{PageNumber: i + 1, Content: p})
		}
		content, boundaries := domain.AssemblePages(result.Pages, nil)
		result.Content = content
		result.Metadata.Pages = &domain.PageStructure{TotalCount: len(pages), UnitType: domain.PageUnitPage, Boundaries: boundaries}
		return &driven.Extraction{Result: result}, nil
	}
	return ex
}

func TestExtractBytes_PlainText(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.ExtractBytes(context.Background(), []byte("Hello world"), "text/plain; charset=utf-8", nil)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", result.Content)
	assert.Equal(t, "text/plain", result.MimeType)
	assert.NotNil(t, result.Tables)
	assert.Nil(t, result.Chunks)
}

func TestExtractBytes_DetectsMimeType(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.ExtractBytes(context.Background(), []byte("just some words"), "", noCache())
	require.NoError(t, err)
	assert.Equal(t, "text/plain", result.MimeType)
}

func TestExtractBytes_UnsupportedFormat(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ExtractBytes(context.Background(), []byte("x"), "application/x-unknown", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
}

func TestExtractBytes_InvalidConfig(t *testing.T) {
	svc, _ := newTestService(t)
	cfg := domain.DefaultExtractionConfig()
	cfg.Chunking = &domain.ChunkingConfig{MaxChars: 10, MaxOverlap: 10}

	_, err := svc.ExtractBytes(context.Background(), []byte("x"), "text/plain", cfg)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestExtractBytes_CachesResults(t *testing.T) {
	svc, plugins := newTestService(t)
	ex := mocks.NewMockExtractor("counting", "application/x-count")
	require.NoError(t, plugins.Extractors.RegisterCustom("application/x-count", ex))

	ctx := context.Background()
	first, err := svc.ExtractBytes(ctx, []byte("same"), "application/x-count", nil)
	require.NoError(t, err)
	second, err := svc.ExtractBytes(ctx, []byte("same"), "application/x-count", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, ex.Calls())
	assert.Equal(t, first.Content, second.Content)

	stats, err := svc.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalEntries)

	require.NoError(t, svc.ClearCache(ctx))
	stats, _ = svc.CacheStats(ctx)
	assert.Equal(t, uint64(0), stats.TotalEntries)

	_, err = svc.ExtractBytes(ctx, []byte("same"), "application/x-count", noCache())
	require.NoError(t, err)
	assert.Equal(t, 2, ex.Calls())
}

func TestExtractBytes_CachedResultIsIsolated(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.ExtractBytes(ctx, []byte("original"), "text/plain", nil)
	require.NoError(t, err)
	first.Content = "mutated"

	second, err := svc.ExtractBytes(ctx, []byte("original"), "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "original", second.Content)
}

func TestExtractBytes_ExtractorPanicIsRecoveredAndNotCached(t *testing.T) {
	svc, plugins := newTestService(t)
	ex := mocks.NewMockExtractor("boom", "application/x-boom")
	ex.ExtractFn = func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
		panic("extractor exploded")
	}
	require.NoError(t, plugins.Extractors.RegisterCustom("application/x-boom", ex))

	for i := 0; i < 2; i++ {
		_, err := svc.ExtractBytes(context.Background(), []byte("x"), "application/x-boom", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPanic))
	}
	assert.Equal(t, 2, ex.Calls())
}

func TestExtractBytes_ValidatorFailureIsVerbatim(t *testing.T) {
	svc, plugins := newTestService(t)
	v := mocks.NewMockValidator("min_length", 50)
	v.ValidateFn = func(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) error {
		return domain.NewValidationError("content too short")
	}
	require.NoError(t, plugins.Validators.Register(v))

	_, err := svc.ExtractBytes(context.Background(), []byte("hi"), "text/plain", nil)
	require.Error(t, err)
	assert.Equal(t, "content too short", err.Error())
	assert.True(t, errors.Is(err, domain.ErrValidation))

	stats, _ := svc.CacheStats(context.Background())
	assert.Equal(t, uint64(0), stats.TotalEntries)
}

func TestExtractBytes_PostProcessorFailureIsSwallowed(t *testing.T) {
	svc, plugins := newTestService(t)
	failing := mocks.NewMockPostProcessor("failing", driven.StageMiddle)
	failing.ProcessFn = func(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
		result.Content = "half written"
		return nil, errors.New("enricher unavailable")
	}
	require.NoError(t, plugins.PostProcessors.Register(failing))

	result, err := svc.ExtractBytes(context.Background(), []byte("kept"), "text/plain", noCache())
	require.NoError(t, err)
	assert.Equal(t, "kept", result.Content)
}

func TestExtractBytes_OCRForImages(t *testing.T) {
	svc, plugins := newTestService(t)
	backend := mocks.NewMockOcrBackend("mock")
	backend.ProcessFn = func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
		assert.Equal(t, "deu", req.Language)
		return &driven.OcrRawResult{Content: "recognized text"}, nil
	}
	require.NoError(t, plugins.OCR.Register(backend))

	ex := mocks.NewMockExtractor("scan", "image/x-scan")
	ex.ExtractFn = func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
		return &driven.Extraction{
			Result:   &domain.ExtractionResult{MimeType: mimeType},
			NeedsOCR: true,
		}, nil
	}
	require.NoError(t, plugins.Extractors.RegisterCustom("image/x-scan", ex))

	cfg := noCache()
	cfg.OCR = &domain.OcrConfig{Backend: "mock", Language: "deu"}
	result, err := svc.ExtractBytes(context.Background(), []byte("raster"), "image/x-scan", cfg)
	require.NoError(t, err)

	assert.Equal(t, "recognized text", result.Content)
	assert.Equal(t, 1, backend.Processed())
	meta, ok := result.Metadata.Format.(*domain.OcrMetadata)
	require.True(t, ok, "expected ocr metadata, got %T", result.Metadata.Format)
	assert.Equal(t, "mock", meta.Backend)
	assert.Equal(t, "deu", meta.Language)
}

func TestExtractBytes_OCRNotConfigured(t *testing.T) {
	svc, plugins := newTestService(t)
	ex := mocks.NewMockExtractor("scan", "image/x-scan")
	ex.ExtractFn = func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
		return &driven.Extraction{Result: &domain.ExtractionResult{MimeType: mimeType}, NeedsOCR: true}, nil
	}
	require.NoError(t, plugins.Extractors.RegisterCustom("image/x-scan", ex))

	result, err := svc.ExtractBytes(context.Background(), []byte("raster"), "image/x-scan", noCache())
	require.NoError(t, err)
	assert.Empty(t, result.Content)
}

func TestExtractBytes_ForceOCRMissingBackend(t *testing.T) {
	svc, plugins := newTestService(t)
	ex := mocks.NewMockExtractor("scan", "image/x-scan")
	require.NoError(t, plugins.Extractors.RegisterCustom("image/x-scan", ex))

	cfg := noCache()
	cfg.ForceOCR = true
	_, err := svc.ExtractBytes(context.Background(), []byte("raster"), "image/x-scan", cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingDependency))
}

func TestExtractBytes_OCRElementsFiltered(t *testing.T) {
	svc, plugins := newTestService(t)
	backend := mocks.NewMockOcrBackend("mock")
	backend.ProcessFn = func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
		return &driven.OcrRawResult{
			Content: "hello world",
			Elements: []domain.OcrElement{
				{Text: "hello world", Level: domain.OcrLevelLine, Confidence: domain.OcrConfidence{Recognition: 0.9}},
				{Text: "hello", Level: domain.OcrLevelWord, Confidence: domain.OcrConfidence{Recognition: 0.9}},
			},
		}, nil
	}
	require.NoError(t, plugins.OCR.Register(backend))
	ex := mocks.NewMockExtractor("scan", "image/x-scan")
	ex.ExtractFn = func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
		return &driven.Extraction{Result: &domain.ExtractionResult{MimeType: mimeType}, NeedsOCR: true}, nil
	}
	require.NoError(t, plugins.Extractors.RegisterCustom("image/x-scan", ex))

	cfg := noCache()
	cfg.OCR = &domain.OcrConfig{
		Backend:       "mock",
		Language:      "eng",
		ElementConfig: &domain.OcrElementConfig{IncludeElements: true, MinLevel: domain.OcrLevelLine},
	}
	result, err := svc.ExtractBytes(context.Background(), []byte("raster"), "image/x-scan", cfg)
	require.NoError(t, err)

	require.Len(t, result.OcrElements, 1)
	assert.Equal(t, domain.OcrLevelLine, result.OcrElements[0].Level)
	assert.NotEmpty(t, result.OcrElements[0].ElementID)
	assert.Equal(t, 1, result.OcrElements[0].PageNumber)
}

func scanWithBackend(t *testing.T, process func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error)) (driving.ExtractionService, *runtime.Plugins) {
	t.Helper()
	svc, plugins := newTestService(t)
	backend := mocks.NewMockOcrBackend("mock")
	backend.ProcessFn = process
	require.NoError(t, plugins.OCR.Register(backend))
	ex := mocks.NewMockExtractor("scan", "image/x-scan")
	ex.ExtractFn = func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
		return &driven.Extraction{Result: &domain.ExtractionResult{MimeType: mimeType}, NeedsOCR: true}, nil
	}
	require.NoError(t, plugins.Extractors.RegisterCustom("image/x-scan", ex))
	return svc, plugins
}

func TestExtractBytes_DanglingOCRParentSurvivesValidatorClear(t *testing.T) {
	svc, plugins := scanWithBackend(t, func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
		return &driven.OcrRawResult{
			Content: "hello",
			Elements: []domain.OcrElement{
				{ElementID: "w1", ParentID: "ghost", Text: "hello", Level: domain.OcrLevelWord, Confidence: domain.OcrConfidence{Recognition: 0.9}},
			},
		}, nil
	})
	plugins.Validators.Clear()

	cfg := noCache()
	cfg.OCR = &domain.OcrConfig{
		Backend:       "mock",
		Language:      "eng",
		ElementConfig: &domain.OcrElementConfig{IncludeElements: true, BuildHierarchy: true, MinLevel: domain.OcrLevelWord},
	}
	_, err := svc.ExtractBytes(context.Background(), []byte("raster"), "image/x-scan", cfg)
	require.Error(t, err)
	assert.Equal(t, "ValidationError", domain.KindOf(err).TypeName())
	assert.Contains(t, err.Error(), `references missing parent "ghost"`)
}

func TestExtractBytes_OCRMetadataIsCopied(t *testing.T) {
	shared := &domain.OcrMetadata{Language: "deu"}
	svc, _ := scanWithBackend(t, func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
		return &driven.OcrRawResult{Content: "hallo", Metadata: shared}, nil
	})

	cfg := noCache()
	cfg.OCR = &domain.OcrConfig{Backend: "mock", Language: "deu"}
	result, err := svc.ExtractBytes(context.Background(), []byte("raster"), "image/x-scan", cfg)
	require.NoError(t, err)

	meta, ok := result.Metadata.Format.(*domain.OcrMetadata)
	require.True(t, ok, "expected ocr format metadata, got %T", result.Metadata.Format)
	assert.Equal(t, "mock", meta.Backend)
	assert.Empty(t, shared.Backend, "backend metadata must not be mutated")
	assert.NotSame(t, shared, meta)
}

func TestExtractBytes_NestedImageOCR(t *testing.T) {
	svc, plugins := newTestService(t)
	backend := mocks.NewMockOcrBackend("mock")
	backend.ProcessFn = func(ctx context.Context, image []byte, req driven.OcrRequest) (*driven.OcrRawResult, error) {
		return &driven.OcrRawResult{Content: "caption"}, nil
	}
	require.NoError(t, plugins.OCR.Register(backend))
	ex := mocks.NewMockExtractor("with_images", "application/x-images")
	ex.ExtractFn = func(ctx context.Context, data []byte, mimeType string, cfg *domain.ExtractionConfig) (*driven.Extraction, error) {
		return &driven.Extraction{Result: &domain.ExtractionResult{
			Content:  "body",
			MimeType: mimeType,
			Images:   []domain.ExtractedImage{{Data: []byte("img"), Format: "png", PageNumber: domain.IntPtr(2)}},
		}}, nil
	}
	require.NoError(t, plugins.Extractors.RegisterCustom("application/x-images", ex))

	cfg := noCache()
	cfg.OCR = &domain.OcrConfig{Backend: "mock", Language: "eng"}
	images := domain.DefaultImageExtractionConfig()
	images.ExtractImages = true
	cfg.Images = &images

	result, err := svc.ExtractBytes(context.Background(), []byte("doc"), "application/x-images", cfg)
	require.NoError(t, err)

	assert.Equal(t, "body", result.Content)
	require.Len(t, result.Images, 1)
	require.NotNil(t, result.Images[0].OcrResult)
	assert.Equal(t, "caption", result.Images[0].OcrResult.Content)
	assert.Nil(t, result.Images[0].OcrResult.Images)
}

func TestExtractBytes_PageMarkers(t *testing.T) {
	svc, plugins := newTestService(t)
	require.NoError(t, plugins.Extractors.RegisterCustom("application/x-paged", pagedExtractor("one", "two")))

	cfg := noCache()
	cfg.Pages = &domain.PageConfig{ExtractPages: true, InsertPageMarkers: true, MarkerFormat: domain.DefaultPageMarkerFormat}
	result, err := svc.ExtractBytes(context.Background(), []byte("doc"), "application/x-paged", cfg)
	require.NoError(t, err)

	assert.Equal(t, "\n\n<!-- PAGE 1 -->\n\none\n\n<!-- PAGE 2 -->\n\ntwo", result.Content)
	require.NotNil(t, result.Metadata.Pages)
	for i, want := range []string{"one", "two"} {
		b := result.Metadata.Pages.Boundaries[i]
		assert.Equal(t, want, result.Content[b.ByteStart:b.ByteEnd])
	}
	assert.Len(t, result.Pages, 2)
}

func TestExtractBytes_PagesDroppedUnlessRequested(t *testing.T) {
	svc, plugins := newTestService(t)
	require.NoError(t, plugins.Extractors.RegisterCustom("application/x-paged", pagedExtractor("one", "two")))

	result, err := svc.ExtractBytes(context.Background(), []byte("doc"), "application/x-paged", noCache())
	require.NoError(t, err)

	assert.Equal(t, "one\n\ntwo", result.Content)
	assert.Nil(t, result.Pages)
	assert.Len(t, result.Metadata.Pages.Boundaries, 2)
}

func TestExtractBytes_ChunkingAndEmbeddings(t *testing.T) {
	svc, plugins := newTestService(t)
	plugins.SetEmbeddingService(mocks.NewMockEmbeddingService())

	cfg := noCache()
	emb := domain.DefaultEmbeddingConfig()
	cfg.Chunking = &domain.ChunkingConfig{MaxChars: 20, MaxOverlap: 5, RespectSentences: true, RespectParagraphs: true, Embedding: &emb}

	content := strings.Repeat("Sentence number one. ", 10)
	result, err := svc.ExtractBytes(context.Background(), []byte(content), "text/plain", cfg)
	require.NoError(t, err)

	require.NotEmpty(t, result.Chunks)
	assert.Equal(t, len(result.Chunks), result.Metadata.Additional["chunk_count"])
	assert.Equal(t, true, result.Metadata.Additional["embeddings_generated"])
	for _, c := range result.Chunks {
		assert.Equal(t, c.Content, result.Content[c.Metadata.ByteStart:c.Metadata.ByteEnd])
		assert.Len(t, c.Embedding, 384)
	}
}

func TestExtractBytes_EmbeddingFailureIsRecorded(t *testing.T) {
	svc, _ := newTestService(t)

	cfg := noCache()
	emb := domain.DefaultEmbeddingConfig()
	chunkCfg := domain.DefaultChunkingConfig()
	chunkCfg.Embedding = &emb
	cfg.Chunking = &chunkCfg

	result, err := svc.ExtractBytes(context.Background(), []byte("short text"), "text/plain", cfg)
	require.NoError(t, err)

	assert.Len(t, result.Chunks, 1)
	assert.Contains(t, result.Metadata.Additional["embedding_error"], "no embedding service configured")
	assert.Nil(t, result.Chunks[0].Embedding)
}

func TestExtractBytes_OutputFormatHTML(t *testing.T) {
	svc, plugins := newTestService(t)
	require.NoError(t, plugins.Extractors.RegisterCustom("application/x-paged", pagedExtractor("a<b", "c&d")))

	cfg := noCache()
	cfg.OutputFormat = domain.OutputHTML
	cfg.Chunking = &domain.ChunkingConfig{MaxChars: 8, MaxOverlap: 0}
	result, err := svc.ExtractBytes(context.Background(), []byte("doc"), "application/x-paged", cfg)
	require.NoError(t, err)

	assert.Equal(t, "<pre>a&lt;b\n\nc&amp;d</pre>", result.Content)
	b := result.Metadata.Pages.Boundaries[1]
	assert.Equal(t, "c&amp;d", result.Content[b.ByteStart:b.ByteEnd])
	for _, c := range result.Chunks {
		assert.Equal(t, c.Content, result.Content[c.Metadata.ByteStart:c.Metadata.ByteEnd])
	}
}

func TestExtractBytes_OutputFormatDjot(t *testing.T) {
	svc, _ := newTestService(t)
	cfg := noCache()
	cfg.OutputFormat = domain.OutputDjot

	result, err := svc.ExtractBytes(context.Background(), []byte("# Title\n\nSome **bold** and *soft* words."), "text/markdown", cfg)
	require.NoError(t, err)
	assert.Contains(t, result.Content, "Some *bold* and _soft_ words.")
}

func TestExtractFile(t *testing.T) {
	src := mocks.NewMockDocumentSource("mem://")
	src.Add("mem://notes.txt", []byte("from memory"), "text/plain")
	svc, _ := newTestService(t, src)

	result, err := svc.ExtractFile(context.Background(), "mem://notes.txt", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "from memory", result.Content)

	_, err = svc.ExtractFile(context.Background(), "mem://missing.txt", "", nil)
	assert.True(t, errors.Is(err, domain.ErrIO))

	_, err = svc.ExtractFile(context.Background(), "ftp://elsewhere", "", nil)
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestExtractBytesAsync(t *testing.T) {
	svc, _ := newTestService(t)

	ch := svc.ExtractBytesAsync(context.Background(), []byte("async"), "text/plain", nil)
	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, "async", res.Result.Content)

	_, open := <-ch
	assert.False(t, open)
}

func TestBatchExtractBytes_IsolatesFailures(t *testing.T) {
	svc, _ := newTestService(t)
	docs := []driving.Document{
		{Data: []byte("first"), MimeType: "text/plain"},
		{Data: []byte("second"), MimeType: "application/x-unknown"},
		{Data: []byte("third"), MimeType: "text/plain"},
	}

	results, err := svc.BatchExtractBytes(context.Background(), docs, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "third", results[2].Content)
	require.NotNil(t, results[1].Metadata.Error)
	assert.Equal(t, "UnsupportedFormatError", results[1].Metadata.Error.ErrorType)
	assert.Empty(t, results[1].Content)
	assert.Nil(t, results[0].Metadata.Error)
}

func TestBatchExtractBytes_Cancelled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := []driving.Document{{Data: []byte("a"), MimeType: "text/plain"}, {Data: []byte("b"), MimeType: "text/plain"}}
	results, err := svc.BatchExtractBytes(ctx, docs, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	require.Len(t, results, 2)
	for _, r := range results {
		require.NotNil(t, r)
		require.NotNil(t, r.Metadata.Error)
		assert.Equal(t, context.Canceled.Error(), r.Metadata.Error.Message)
	}
}

func TestBatchExtractFiles(t *testing.T) {
	src := mocks.NewMockDocumentSource("mem://")
	src.Add("mem://a.txt", []byte("alpha"), "")
	svc, _ := newTestService(t, src)

	results, err := svc.BatchExtractFiles(context.Background(), []string{"mem://a.txt", "mem://b.txt"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Content)
	require.NotNil(t, results[1].Metadata.Error)
	assert.Equal(t, "IOError", results[1].Metadata.Error.ErrorType)
	assert.Equal(t, "text/plain", results[1].MimeType)
}

func TestChunk(t *testing.T) {
	svc, _ := newTestService(t)

	chunks, err := svc.Chunk(context.Background(), "aaaa bbbb cccc", &domain.ChunkingConfig{MaxChars: 5, MaxOverlap: 0})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	_, err = svc.Chunk(context.Background(), "x", &domain.ChunkingConfig{MaxChars: 0})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSupportedMimeTypes(t *testing.T) {
	svc, _ := newTestService(t)
	types := svc.SupportedMimeTypes()
	assert.Contains(t, types, "application/pdf")
	assert.Contains(t, types, "text/plain")
}
