package postprocessors

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Pipeline runs post-processors in stage order: Early, Middle, Late.
// Within a stage processors run in registration order.
//
// Enrichment is best-effort. Each processor works on a private clone of the
// result; the clone replaces the current result only when the processor
// returns without error or panic. Failures are logged and the pipeline
// continues with the last good result.
type Pipeline struct {
	mu         sync.RWMutex
	processors []registered
	logger     *slog.Logger
}

type registered struct {
	proc  driven.PostProcessor
	stage driven.ProcessingStage
}

// NewPipeline creates an empty post-processor pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		processors: make([]registered, 0),
		logger:     logger.With("component", "postprocessors"),
	}
}

// StageOf returns the stage a processor runs in.
func StageOf(proc driven.PostProcessor) driven.ProcessingStage {
	if s, ok := proc.(driven.StagedPostProcessor); ok {
		return s.ProcessingStage()
	}
	return driven.StageMiddle
}

// Register adds a processor. Names must be unique.
func (p *Pipeline) Register(proc driven.PostProcessor) error {
	if proc == nil {
		return domain.NewPluginError("", "post-processor must not be nil")
	}
	name := proc.Name()
	if name == "" {
		return domain.NewPluginError("", "post-processor name must not be empty")
	}
	stage := StageOf(proc)
	if stage < driven.StageEarly || stage > driven.StageLate {
		return domain.NewPluginError(name, fmt.Sprintf("invalid processing stage %d", stage))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range p.processors {
		if r.proc.Name() == name {
			return domain.NewPluginError(name, "post-processor already registered")
		}
	}
	if init, ok := proc.(driven.Initializer); ok {
		if err := init.Initialize(); err != nil {
			return domain.NewPluginError(name, fmt.Sprintf("initialize failed: %v", err))
		}
	}

	p.processors = append(p.processors, registered{proc: proc, stage: stage})
	return nil
}

// Unregister removes a processor by name and shuts it down.
func (p *Pipeline) Unregister(name string) error {
	p.mu.Lock()
	idx := slices.IndexFunc(p.processors, func(r registered) bool { return r.proc.Name() == name })
	var removed driven.PostProcessor
	if idx >= 0 {
		removed = p.processors[idx].proc
		p.processors = slices.Delete(p.processors, idx, idx+1)
	}
	p.mu.Unlock()

	if removed == nil {
		return domain.ErrNotFound
	}
	p.shutdown(removed)
	return nil
}

// Clear removes every processor.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	procs := p.processors
	p.processors = make([]registered, 0)
	p.mu.Unlock()

	for _, r := range procs {
		p.shutdown(r.proc)
	}
}

// List returns processor names in execution order.
func (p *Pipeline) List() []string {
	ordered := p.snapshot()
	names := make([]string, len(ordered))
	for i, r := range ordered {
		names[i] = r.proc.Name()
	}
	return names
}

// snapshot copies the processors in execution order so Run never holds the
// lock while calling into a processor.
func (p *Pipeline) snapshot() []registered {
	p.mu.RLock()
	procs := make([]registered, len(p.processors))
	copy(procs, p.processors)
	p.mu.RUnlock()

	slices.SortStableFunc(procs, func(a, b registered) int { return int(a.stage) - int(b.stage) })
	return procs
}

// Run applies every enabled processor to result. It only returns an error
// when ctx is done.
func (p *Pipeline) Run(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error) {
	var filter *domain.PostProcessorConfig
	if cfg != nil {
		filter = cfg.Postprocessor
	}

	current := result
	for _, r := range p.snapshot() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := r.proc.Name()
		if !filter.ProcessorEnabled(name) {
			continue
		}

		out, err := p.invoke(ctx, r.proc, current.Clone(), cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logArgs := []any{"processor", name, "stage", r.stage.String(), "error", err}
			if perr, ok := panicContext(err); ok {
				p.logger.Error("post-processor panicked", append(logArgs, "context", perr)...)
			} else {
				p.logger.Warn("post-processor failed", logArgs...)
			}
			continue
		}
		if out == nil {
			p.logger.Warn("post-processor returned no result", "processor", name, "stage", r.stage.String())
			continue
		}
		current = out
	}
	return current, nil
}

func (p *Pipeline) invoke(ctx context.Context, proc driven.PostProcessor, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (out *domain.ExtractionResult, err error) {
	defer domain.Recover(&err)
	return proc.Process(ctx, result, cfg)
}

func (p *Pipeline) shutdown(proc driven.PostProcessor) {
	if s, ok := proc.(driven.Shutdowner); ok {
		if err := s.Shutdown(); err != nil {
			p.logger.Warn("post-processor shutdown failed", "processor", proc.Name(), "error", err)
		}
	}
}

func panicContext(err error) (string, bool) {
	e, ok := err.(*domain.Error)
	if !ok || e.Kind != domain.KindPanic || e.Panic == nil {
		return "", false
	}
	return e.Panic.String(), true
}

// DefaultPipeline creates a pipeline with the built-in processors.
func DefaultPipeline(logger *slog.Logger) *Pipeline {
	p := NewPipeline(logger)
	for _, proc := range []driven.PostProcessor{
		NewQualityProcessor(),
		NewLanguageDetector(),
		NewKeywordExtractor(),
		NewElementBuilder(),
	} {
		// Built-in names are distinct, so registration cannot fail.
		_ = p.Register(proc)
	}
	return p
}
