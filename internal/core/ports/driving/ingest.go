// Package driving defines the interfaces through which external actors
// drive the core (primary ports in hexagonal architecture).
package driving

import (
	"context"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

// SyncOptions configures a sync run.
type SyncOptions struct {
	// Spaces are the space keys to crawl.
	Spaces []string

	// SyncType is FULL or INCREMENTAL.
	SyncType domain.SyncType

	// Tags restricts ingestion to pages carrying at least one tag.
	// Empty means no tag filter.
	Tags []string

	// Limit caps the number of pages fetched per space for FULL syncs.
	// Zero means no cap.
	Limit int
}

// IngestionService drives the ingestion pipeline.
type IngestionService interface {
	// StartSync creates a RUNNING sync run and returns it immediately;
	// the crawl proceeds on a background goroutine.
	StartSync(ctx context.Context, opts SyncOptions) (*domain.SyncRun, error)

	// GetSyncStatus returns the current snapshot of a run.
	// Returns domain.ErrNotFound for an unknown run ID.
	GetSyncStatus(ctx context.Context, runID string) (*domain.SyncRun, error)

	// IngestPage fetches one page irrespective of sync context, (re)creates
	// its record in PENDING and runs the processing pipeline.
	IngestPage(ctx context.Context, pageID string) error

	// ProcessPage runs parse, chunk and embed for an already-tracked page.
	// Returns domain.ErrNotFound if the page has never been ingested.
	ProcessPage(ctx context.Context, pageID string) error
}
