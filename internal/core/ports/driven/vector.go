package driven

import "context"

// VectorIndex provides inner-product similarity search over normalised vectors.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector.
	// It never returns more than k hits or an ID that was not added.
	// Equal scores keep insertion order.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dimensions returns the vector size accepted by the index.
	Dimensions() int

	// IDs returns every indexed chunk ID in insertion order.
	IDs() []string

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the inner product of the query and chunk vectors (-1 to 1).
	Similarity float64
}
