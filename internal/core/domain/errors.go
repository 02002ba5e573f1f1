package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunking indicates malformed chunking parameters
	// (overlap must satisfy 0 <= overlap < size).
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidTransition indicates a page status transition that the
	// lifecycle does not allow. This is a logic error, not an input error.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUpstreamFailure indicates the document source or a model provider
	// is unreachable or returned an error.
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrEmbeddingUnavailable indicates the embedding provider is not configured.
	// Ingestion and semantic search are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrGenerationUnavailable indicates the generation provider is not configured.
	// Root-cause summarisation is disabled without it.
	ErrGenerationUnavailable = errors.New("generation provider unavailable")
)
