package validators

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

const (
	// DefaultPriority applies to validators without a Priority method.
	DefaultPriority = 50
	// MaxPriority is the highest accepted priority.
	MaxPriority = 1000
)

type registered struct {
	validator driven.Validator
	priority  int
	seq       int
}

// Pipeline runs validators in descending priority. The first failure aborts
// the run.
type Pipeline struct {
	mu         sync.RWMutex
	validators []registered
	seq        int
	logger     *slog.Logger
}

// NewPipeline creates an empty validator pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		validators: make([]registered, 0),
		logger:     logger.With("component", "validators"),
	}
}

// PriorityOf returns the priority a validator runs with.
func PriorityOf(v driven.Validator) int {
	if p, ok := v.(driven.PrioritizedValidator); ok {
		return p.Priority()
	}
	return DefaultPriority
}

// Register adds a validator. Names must be unique and priorities within 0-1000.
func (p *Pipeline) Register(v driven.Validator) error {
	if v == nil {
		return domain.NewPluginError("", "validator must not be nil")
	}
	name := v.Name()
	if name == "" {
		return domain.NewPluginError("", "validator name must not be empty")
	}
	priority := PriorityOf(v)
	if priority < 0 || priority > MaxPriority {
		return domain.NewPluginError(name, fmt.Sprintf("priority %d out of range 0-%d", priority, MaxPriority))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range p.validators {
		if r.validator.Name() == name {
			return domain.NewPluginError(name, "validator already registered")
		}
	}
	if init, ok := v.(driven.Initializer); ok {
		if err := init.Initialize(); err != nil {
			return domain.NewPluginError(name, fmt.Sprintf("initialize failed: %v", err))
		}
	}

	p.seq++
	p.validators = append(p.validators, registered{validator: v, priority: priority, seq: p.seq})
	return nil
}

// Unregister removes a validator by name and shuts it down.
func (p *Pipeline) Unregister(name string) error {
	p.mu.Lock()
	idx := slices.IndexFunc(p.validators, func(r registered) bool { return r.validator.Name() == name })
	var removed driven.Validator
	if idx >= 0 {
		removed = p.validators[idx].validator
		p.validators = slices.Delete(p.validators, idx, idx+1)
	}
	p.mu.Unlock()

	if removed == nil {
		return domain.ErrNotFound
	}
	p.shutdown(removed)
	return nil
}

// Clear removes every validator.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	vs := p.validators
	p.validators = make([]registered, 0)
	p.mu.Unlock()

	for _, r := range vs {
		p.shutdown(r.validator)
	}
}

// List returns validator names in execution order.
func (p *Pipeline) List() []string {
	ordered := p.snapshot()
	names := make([]string, len(ordered))
	for i, r := range ordered {
		names[i] = r.validator.Name()
	}
	return names
}

func (p *Pipeline) snapshot() []registered {
	p.mu.RLock()
	vs := make([]registered, len(p.validators))
	copy(vs, p.validators)
	p.mu.RUnlock()

	slices.SortFunc(vs, func(a, b registered) int {
		if a.priority != b.priority {
			return b.priority - a.priority
		}
		return a.seq - b.seq
	})
	return vs
}

// Run validates result. Validator failures are returned as ValidationError
// with the validator's message; panics are returned as PanicError.
func (p *Pipeline) Run(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) error {
	for _, r := range p.snapshot() {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := r.validator.Name()

		err := p.invoke(ctx, r.validator, result, cfg)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch domain.KindOf(err) {
		case domain.KindValidation, domain.KindPanic:
		default:
			err = domain.NewValidationError(err.Error())
		}
		p.logger.Info("validation failed", "validator", name, "priority", r.priority, "error", err)
		return err
	}
	return nil
}

func (p *Pipeline) invoke(ctx context.Context, v driven.Validator, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (err error) {
	defer domain.Recover(&err)
	if c, ok := v.(driven.ConditionalValidator); ok && !c.ShouldValidate(result, cfg) {
		return nil
	}
	return v.Validate(ctx, result, cfg)
}

func (p *Pipeline) shutdown(v driven.Validator) {
	if s, ok := v.(driven.Shutdowner); ok {
		if err := s.Shutdown(); err != nil {
			p.logger.Warn("validator shutdown failed", "validator", v.Name(), "error", err)
		}
	}
}
