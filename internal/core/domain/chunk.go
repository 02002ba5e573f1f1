package domain

// ChunkType distinguishes which parsed section a chunk was cut from.
type ChunkType string

// Chunk types. Symptoms and root cause are embedded independently so a
// query can be matched against either axis.
const (
	ChunkTypeSymptoms  ChunkType = "SYMPTOMS"
	ChunkTypeRootCause ChunkType = "ROOT_CAUSE"
)

// EmbeddedChunk is one embedded text window from a parsed section.
// (PageID, ChunkIndex, ChunkType) is unique. All chunks for a page are
// deleted and regenerated together whenever the page is reprocessed.
type EmbeddedChunk struct {
	// ID is the chunk's unique identifier.
	ID string

	// PageID links to the owning Page.
	PageID string

	// ChunkIndex is the 0-based position within the section's chunk sequence.
	ChunkIndex int

	// ChunkType records which section the chunk was cut from.
	ChunkType ChunkType

	// Content is the exact text window that was embedded.
	Content string

	// Embedding is the vector representation, provider-defined dimension.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}
