package driving

import (
	"context"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

// SearchService provides semantic retrieval over the embedded corpus.
type SearchService interface {
	// Search embeds the query, retrieves nearest chunks for the given mode,
	// scores and filters them, and returns at most topK ranked results.
	// Embedding failures fail open: the result list is empty, the error nil.
	Search(ctx context.Context, query string, topK int, mode domain.SearchMode) ([]domain.RankedResult, error)
}
