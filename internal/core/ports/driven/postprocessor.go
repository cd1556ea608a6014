package driven

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// PostProcessor processes document content on its way to chunks.
// PostProcessors are chained in a pipeline (e.g., cleaning, then chunking).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and the chunks produced so far.
	// Text processors rewrite doc.Content and pass chunks through.
	// The chunker receives nil chunks and returns new ones.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
