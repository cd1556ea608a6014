package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Configuration Errors.
	// These are fatal at startup and never retried.

	// ErrIndexMissing indicates the vector index is absent, unreadable or empty.
	// The retriever refuses to serve queries without it.
	ErrIndexMissing = errors.New("vector index missing or empty")

	// ErrAPIKeyMissing indicates a hosted provider was selected without an API key.
	ErrAPIKeyMissing = errors.New("API key not configured")

	// ErrEmbeddingUnavailable indicates the embedding service could not produce a vector.
	// Callers receive a zero vector alongside this error and degrade to lexical retrieval.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index could not be opened.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// Generation Errors.
	// The generator recovers from these with a single simplified retry.

	// ErrGenerationBlocked indicates the provider filtered the prompt or the output.
	ErrGenerationBlocked = errors.New("generation blocked by safety filter")

	// ErrEmptyGeneration indicates the provider returned no text.
	ErrEmptyGeneration = errors.New("generation returned no text")
)
