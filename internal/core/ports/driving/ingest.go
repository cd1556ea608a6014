package driving

import (
	"context"

	"github.com/swiftvisa/swiftvisa-cli/internal/core/domain"
)

// IngestRequest selects the files to index.
type IngestRequest struct {
	// Paths are files or directories to walk.
	Paths []string

	// Reset discards the existing corpus before indexing.
	Reset bool
}

// IngestService builds the persistent corpus from documents on disk.
type IngestService interface {
	// Ingest extracts, chunks, embeds and indexes the given paths, then saves the corpus.
	Ingest(ctx context.Context, req IngestRequest) (*domain.IngestReport, error)
}
