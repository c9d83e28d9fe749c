package driven

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// Initializer is implemented by plugins that need setup when registered.
type Initializer interface {
	Initialize() error
}

// Shutdowner is implemented by plugins that hold resources until unregistered.
type Shutdowner interface {
	Shutdown() error
}

// ProcessingStage orders post-processors. Stages run Early, Middle, Late.
type ProcessingStage int

const (
	StageEarly ProcessingStage = iota
	StageMiddle
	StageLate
)

func (s ProcessingStage) String() string {
	switch s {
	case StageEarly:
		return "early"
	case StageMiddle:
		return "middle"
	case StageLate:
		return "late"
	default:
		return "unknown"
	}
}

// PostProcessor enriches an extraction result. Failures are logged and
// ignored by the pipeline.
type PostProcessor interface {
	// Name returns the unique processor name.
	Name() string

	// Process returns the enriched result. It receives a private copy and
	// may mutate it freely.
	Process(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) (*domain.ExtractionResult, error)
}

// StagedPostProcessor declares its stage. Processors without it run in StageMiddle.
type StagedPostProcessor interface {
	PostProcessor
	ProcessingStage() ProcessingStage
}

// Validator is a quality gate. Any error aborts the extraction.
type Validator interface {
	// Name returns the unique validator name.
	Name() string

	// Validate returns an error to reject the result. The error message
	// becomes the extraction's terminal error.
	Validate(ctx context.Context, result *domain.ExtractionResult, cfg *domain.ExtractionConfig) error
}

// PrioritizedValidator declares its priority (0-1000, higher runs first).
// Validators without it get priority 50.
type PrioritizedValidator interface {
	Validator
	Priority() int
}

// ConditionalValidator can skip results by content.
type ConditionalValidator interface {
	Validator
	ShouldValidate(result *domain.ExtractionResult, cfg *domain.ExtractionConfig) bool
}
