package driven

import (
	"context"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

// PageStore persists page records and their lifecycle state.
type PageStore interface {
	// SavePage stores or replaces a page record keyed by PageID.
	SavePage(ctx context.Context, page *domain.Page) error

	// GetPage retrieves a page by its source identifier.
	// Returns domain.ErrNotFound if no record exists.
	GetPage(ctx context.Context, pageID string) (*domain.Page, error)

	// ListPages returns all tracked pages, optionally filtered by space key.
	// An empty spaceKey matches all spaces.
	ListPages(ctx context.Context, spaceKey string) ([]domain.Page, error)
}

// ParsedRCAStore persists extracted sections, one record per page.
type ParsedRCAStore interface {
	// SaveParsedRCA replaces the parsed RCA for a page (delete/insert).
	SaveParsedRCA(ctx context.Context, rca *domain.ParsedRCA) error

	// GetParsedRCA retrieves the parsed RCA for a page.
	// Returns domain.ErrNotFound if no record exists.
	GetParsedRCA(ctx context.Context, pageID string) (*domain.ParsedRCA, error)
}

// NeighborFilter narrows a nearest-neighbour lookup.
// Zero values impose no restriction.
type NeighborFilter struct {
	// ChunkType restricts matches to one chunk type.
	ChunkType domain.ChunkType

	// SpaceKey restricts matches to pages in one space.
	SpaceKey string
}

// Neighbor is one nearest-neighbour hit.
type Neighbor struct {
	// Chunk is the matched chunk, embedding included.
	Chunk domain.EmbeddedChunk

	// Distance is the cosine distance to the query vector (0 = identical).
	Distance float64
}

// ChunkStore persists embedded chunks and answers nearest-neighbour queries.
// The store owns the "k-nearest by distance, optionally filtered" primitive;
// the retrieval engine never reimplements it.
type ChunkStore interface {
	// SaveChunks stores chunks for a page in one transaction.
	SaveChunks(ctx context.Context, chunks []domain.EmbeddedChunk) error

	// GetChunks returns all chunks for a page ordered by type then index.
	GetChunks(ctx context.Context, pageID string) ([]domain.EmbeddedChunk, error)

	// DeleteChunks removes every chunk belonging to a page.
	DeleteChunks(ctx context.Context, pageID string) error

	// NearestNeighbors returns up to limit chunks whose cosine distance to
	// query is below maxDistance, ordered by ascending distance.
	NearestNeighbors(ctx context.Context, query []float32, maxDistance float64, filter NeighborFilter, limit int) ([]Neighbor, error)
}

// SyncRunStore persists sync run records.
type SyncRunStore interface {
	// SaveRun stores or updates a run. Counter updates use this too, so the
	// implementation must make the latest committed counters visible to
	// concurrent GetRun calls.
	SaveRun(ctx context.Context, run *domain.SyncRun) error

	// GetRun retrieves a run by ID.
	// Returns domain.ErrNotFound if no record exists.
	GetRun(ctx context.Context, id string) (*domain.SyncRun, error)

	// LatestTerminalRun returns the most recently started COMPLETED or FAILED
	// run, excluding the run with excludeID. Returns domain.ErrNotFound when
	// no such run exists.
	LatestTerminalRun(ctx context.Context, excludeID string) (*domain.SyncRun, error)
}
