package driven

import (
	"context"
	"time"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

// DocumentSource fetches postmortem pages from an external document system.
// The reference implementation talks to the Confluence REST API.
type DocumentSource interface {
	// FetchPages returns all pages in a space, filtered to those carrying at
	// least one of the given tags. An empty tag list matches everything.
	FetchPages(ctx context.Context, spaceKey string, tags []string) ([]domain.PageContent, error)

	// FetchPageByID returns a single page by its source identifier.
	// Returns domain.ErrNotFound if the page does not exist.
	FetchPageByID(ctx context.Context, id string) (*domain.PageContent, error)

	// FetchModifiedSince returns pages across the given spaces whose
	// source-reported last-modified timestamp is strictly after since.
	FetchModifiedSince(ctx context.Context, since time.Time, spaceKeys, tags []string) ([]domain.PageContent, error)
}
