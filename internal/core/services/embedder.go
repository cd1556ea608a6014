package services

import (
	"context"
	"fmt"
	"math"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
	"github.com/swiftvisa/swiftvisa-cli/internal/core/ports/driven"
	"github.com/swiftvisa/swiftvisa-cli/internal/logger"
)

// Embedder wraps an EmbeddingService and guarantees unit-norm output.
type Embedder struct {
	service    driven.EmbeddingService
	dimensions int
}

// NewEmbedder creates an embedder. Dimensions falls back to the service's own value.
func NewEmbedder(service driven.EmbeddingService, dimensions int) *Embedder {
	if dimensions <= 0 && service != nil {
		dimensions = service.Dimensions()
	}
	return &Embedder{service: service, dimensions: dimensions}
}

// Dimensions returns the vector size produced by Embed.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed returns the L2-normalised embedding of text.
//
// When the backend is unavailable it returns a zero vector of the configured
// dimension together with an error wrapping domain.ErrEmbeddingUnavailable.
// A zero vector ranks last under inner product, and the retriever switches to
// lexical scoring when it sees one.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.service == nil {
		return make([]float32, e.dimensions), fmt.Errorf("%w: no embedding service", domain.ErrEmbeddingUnavailable)
	}

	vec, err := e.service.Embed(ctx, text)
	if err != nil {
		logger.Warn("Embedding failed, using zero vector: %v", err)
		return make([]float32, e.dimensions), fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if e.dimensions > 0 && len(vec) != e.dimensions {
		logger.Warn("Embedding has %d dimensions, expected %d", len(vec), e.dimensions)
		return make([]float32, e.dimensions), fmt.Errorf("%w: %w: got %d, want %d",
			domain.ErrEmbeddingUnavailable, domain.ErrDimensionMismatch, len(vec), e.dimensions)
	}

	return Normalize(vec), nil
}

// EmbedBatch embeds texts and normalises every vector. Unlike Embed it fails hard,
// since ingestion must not index placeholder vectors.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: no embedding service", domain.ErrEmbeddingUnavailable)
	}
	vecs, err := e.service.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vecs), len(texts))
	}
	for i := range vecs {
		if e.dimensions > 0 && len(vecs[i]) != e.dimensions {
			return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vecs[i]), e.dimensions)
		}
		vecs[i] = Normalize(vecs[i])
	}
	return vecs, nil
}

// Normalize returns a copy of v scaled to unit L2 norm. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
