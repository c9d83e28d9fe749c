package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/runtime"
)

// pipelineWorld is the per-scenario state
type pipelineWorld struct {
	plugins   *runtime.Plugins
	svc       driving.ExtractionService
	cfg       *domain.ExtractionConfig
	extractor *mocks.MockExtractor
	result    *domain.ExtractionResult
	results   []*domain.ExtractionResult
	err       error
}

func (w *pipelineWorld) reset() {
	w.plugins = runtime.DefaultPlugins(nil, nil)
	w.svc = NewExtractionService(w.plugins, nil, nil, nil)
	w.cfg = domain.DefaultExtractionConfig()
	w.extractor, w.result, w.results, w.err = nil, nil, nil, nil
}

func (w *pipelineWorld) aCountingExtractorFor(mimeType string) error {
	w.extractor = mocks.NewMockExtractor("counting", mimeType)
	return w.plugins.Extractors.RegisterCustom(mimeType, w.extractor)
}

func (w *pipelineWorld) aPagedExtractorWithPages(list string) error {
	w.extractor = pagedExtractor(strings.Split(list, ",")...)
	return w.plugins.Extractors.RegisterCustom("application/x-paged", w.extractor)
}

func (w *pipelineWorld) pageMarkersAreEnabled() error {
	w.cfg.Pages = &domain.PageConfig{InsertPageMarkers: true, MarkerFormat: domain.DefaultPageMarkerFormat}
	return nil
}

func (w *pipelineWorld) aPostProcessorThatFails(name string) error {
	proc := mocks.NewMockPostProcessor(name, driven.StageMiddle)
	proc.ProcessFn = func(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
		result.Content = "corrupted"
		return nil, errors.New("processor failed")
	}
	return w.plugins.PostProcessors.Register(proc)
}

func (w *pipelineWorld) aValidatorThatRejectsWith(name, message string) error {
	v := mocks.NewMockValidator(name, 50)
	v.ValidateFn = func(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) error {
		return domain.NewValidationError(message)
	}
	return w.plugins.Validators.Register(v)
}

func (w *pipelineWorld) iExtractAs(content, mimeType string) error {
	w.result, w.err = w.svc.ExtractBytes(context.Background(), []byte(content), mimeType, w.cfg)
	return nil
}

func (w *pipelineWorld) iExtractAsTimes(content, mimeType string, times int) error {
	for i := 0; i < times; i++ {
		if err := w.iExtractAs(content, mimeType); err != nil {
			return err
		}
		if w.err != nil {
			return w.err
		}
	}
	return nil
}

func (w *pipelineWorld) iBatchExtract(table *godog.Table) error {
	var docs []driving.Document
	for _, row := range table.Rows[1:] {
		docs = append(docs, driving.Document{Data: []byte(row.Cells[0].Value), MimeType: row.Cells[1].Value})
	}
	w.results, w.err = w.svc.BatchExtractBytes(context.Background(), docs, w.cfg)
	return w.err
}

func (w *pipelineWorld) theExtractorRan(times int) error {
	if got := w.extractor.Calls(); got != times {
		return fmt.Errorf("expected %d extractor calls, got %d", times, got)
	}
	return nil
}

func (w *pipelineWorld) theCacheHolds(entries int) error {
	stats, err := w.svc.CacheStats(context.Background())
	if err != nil {
		return err
	}
	if stats.TotalEntries != uint64(entries) {
		return fmt.Errorf("expected %d cache entries, got %d", entries, stats.TotalEntries)
	}
	return nil
}

func (w *pipelineWorld) theContentIs(want string) error {
	if w.err != nil {
		return w.err
	}
	want, err := strconv.Unquote(`"` + want + `"`)
	if err != nil {
		return err
	}
	if w.result.Content != want {
		return fmt.Errorf("expected content %q, got %q", want, w.result.Content)
	}
	return nil
}

func (w *pipelineWorld) theExtractionFailsWith(message string) error {
	if w.err == nil {
		return errors.New("expected extraction to fail")
	}
	if w.err.Error() != message {
		return fmt.Errorf("expected error %q, got %q", message, w.err.Error())
	}
	return nil
}

func (w *pipelineWorld) resultHasContent(index int, want string) error {
	r := w.results[index-1]
	if r.Content != want {
		return fmt.Errorf("result %d: expected content %q, got %q", index, want, r.Content)
	}
	return nil
}

func (w *pipelineWorld) resultHasErrorType(index int, want string) error {
	r := w.results[index-1]
	if r.Metadata.Error == nil {
		return fmt.Errorf("result %d has no error metadata", index)
	}
	if r.Metadata.Error.ErrorType != want {
		return fmt.Errorf("result %d: expected error type %q, got %q", index, want, r.Metadata.Error.ErrorType)
	}
	return nil
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &pipelineWorld{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.reset()
		return ctx, nil
	})

	sc.Step(`^a counting extractor for "([^"]*)"$`, w.aCountingExtractorFor)
	sc.Step(`^a paged extractor with pages "([^"]*)"$`, w.aPagedExtractorWithPages)
	sc.Step(`^page markers are enabled$`, w.pageMarkersAreEnabled)
	sc.Step(`^a post-processor "([^"]*)" that fails$`, w.aPostProcessorThatFails)
	sc.Step(`^a validator "([^"]*)" that rejects with "([^"]*)"$`, w.aValidatorThatRejectsWith)
	sc.Step(`^I extract "([^"]*)" as "([^"]*)" (\d+) times$`, w.iExtractAsTimes)
	sc.Step(`^I extract "([^"]*)" as "([^"]*)"$`, w.iExtractAs)
	sc.Step(`^I batch extract:$`, w.iBatchExtract)
	sc.Step(`^the extractor ran (\d+) times?$`, w.theExtractorRan)
	sc.Step(`^the cache holds (\d+) entr(?:y|ies)$`, w.theCacheHolds)
	sc.Step(`^the content is "([^"]*)"$`, w.theContentIs)
	sc.Step(`^the extraction fails with "([^"]*)"$`, w.theExtractionFailsWith)
	sc.Step(`^result (\d+) has content "([^"]*)"$`, w.resultHasContent)
	sc.Step(`^result (\d+) has error type "([^"]*)"$`, w.resultHasErrorType)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
