package chunking

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Embed fills chunk embeddings in batches. Every vector must have the same
// dimension.
func Embed(ctx context.Context, chunks []domain.Chunk, svc driven.EmbeddingService, cfg domain.EmbeddingConfig) error {
	if len(chunks) == 0 {
		return nil
	}
	if svc == nil {
		return domain.NewMissingDependencyError("embedding", "no embedding service configured")
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = domain.DefaultEmbeddingConfig().BatchSize
	}

	dims := 0
	for start := 0; start < len(chunks); start += batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batch, len(chunks))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Content
		}
		vectors, err := svc.Embed(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding service returned %d vectors for %d chunks", len(vectors), len(texts))
		}

		for i, v := range vectors {
			if dims == 0 {
				dims = len(v)
			}
			if len(v) == 0 || len(v) != dims {
				return domain.NewValidationError(fmt.Sprintf(
					"embedding dimension mismatch: chunk %d has %d, expected %d", start+i, len(v), dims))
			}
			if cfg.Normalize {
				v = normalize(v)
			}
			chunks[start+i].Embedding = v
		}
	}
	return nil
}

// normalize scales v to unit length.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
