package driving

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// QueryService answers one eligibility question end to end.
type QueryService interface {
	// Run executes the retrieval-and-decision pipeline for one query.
	// It returns an error only for invalid input or an already cancelled context;
	// every downstream failure is folded into the returned Answer.
	Run(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)

	// IndexSize returns the number of chunks available to the retriever.
	IndexSize() int
}
