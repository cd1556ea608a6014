package driven

import "github.com/swiftvisa/swiftvisa-cli/internal/core/domain"

// ChunkStore resolves chunk identifiers to metadata and text.
// Lookups of unknown identifiers are soft misses, never errors.
type ChunkStore interface {
	// Meta returns the metadata for id and whether it exists.
	Meta(id string) (domain.ChunkMeta, bool)

	// Text returns the chunk text for id, or "" when unknown.
	Text(id string) string

	// IDs returns every known chunk identifier in insertion order.
	IDs() []string

	// Len returns the number of known chunks.
	Len() int
}

// CorpusWriter accepts chunks during ingestion and persists them.
type CorpusWriter interface {
	ChunkStore

	// Put stores a chunk with its embedding.
	Put(chunk domain.Chunk, embedding []float32) error

	// Save persists the index, metadata and chunk text.
	Save() error

	// Index returns the vector index backing the corpus.
	Index() VectorIndex
}
