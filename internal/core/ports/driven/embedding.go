package driven

import "context"

// EmbeddingProvider generates vector embeddings from text.
// Implementations are selected once at startup from static configuration.
//
// Implementations may include:
//   - Gemini (text-embedding-004)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingProvider interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The returned slice
	// is aligned with texts: an individual embedding failure yields an empty
	// vector at that index rather than failing the whole batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768).
	// This is determined by the model and must match the stored vectors.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the provider is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerationProvider produces natural-language summaries over ranked search
// results. It is consumed by callers of the retrieval engine, never by the
// engine itself.
type GenerationProvider interface {
	// Summarize suggests a likely root cause for the query, grounded on the
	// supplied context passages.
	Summarize(ctx context.Context, query string, passages []string) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
