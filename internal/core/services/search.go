package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
	"github.com/opsrca/rcafinder/internal/core/ports/driving"
	"github.com/opsrca/rcafinder/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.SearchService = (*RetrievalService)(nil)

// Retrieval defaults.
const (
	// DefaultMinSimilarity is the cosine similarity floor below which a
	// chunk is never returned.
	DefaultMinSimilarity = 0.70

	// DefaultTopK is the result count used when the caller passes topK <= 0.
	DefaultTopK = 5

	// Hybrid scoring weights: vector similarity dominates, keyword presence
	// nudges.
	hybridVectorWeight  = 0.8
	hybridKeywordWeight = 0.2
)

// stopWords are excluded when picking the hybrid boost keyword.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "in": {}, "on": {}, "at": {},
	"for": {}, "to": {}, "of": {}, "and": {}, "or": {}, "is": {},
	"was": {}, "were": {}, "are": {}, "with": {}, "from": {}, "by": {},
}

// RetrievalService ranks embedded chunks against a natural-language query.
type RetrievalService struct {
	embedder driven.EmbeddingProvider
	chunks   driven.ChunkStore
	pages    driven.PageStore
	rcas     driven.ParsedRCAStore

	minSimilarity float64
}

// RetrievalOption customises a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithMinSimilarity overrides the similarity floor. Values outside (0, 1]
// are ignored.
func WithMinSimilarity(min float64) RetrievalOption {
	return func(s *RetrievalService) {
		if min > 0 && min <= 1 {
			s.minSimilarity = min
		}
	}
}

// NewRetrievalService creates a retrieval service over the given stores.
func NewRetrievalService(
	embedder driven.EmbeddingProvider,
	chunks driven.ChunkStore,
	pages driven.PageStore,
	rcas driven.ParsedRCAStore,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		embedder:      embedder,
		chunks:        chunks,
		pages:         pages,
		rcas:          rcas,
		minSimilarity: DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search embeds the query and returns at most topK ranked results for the
// given mode. An unavailable embedder fails open: no results, nil error.
func (s *RetrievalService) Search(ctx context.Context, query string, topK int, mode domain.SearchMode) ([]domain.RankedResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if mode == "" {
		mode = domain.SearchModeSemantic
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, mode)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil || len(vector) == 0 {
		logger.Warn("Query embedding unavailable, returning no results: %v", err)
		return nil, nil
	}

	neighbors, err := s.nearest(ctx, vector, topK, mode)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbours: %w", err)
	}

	results := s.rank(neighbors, query, topK, mode)
	return s.hydrate(ctx, results)
}

// nearest runs the mode-specific neighbour lookup. Hybrid mode widens both
// the distance cutoff and the candidate count so keyword boosting has
// borderline chunks to work with.
func (s *RetrievalService) nearest(ctx context.Context, vector []float32, topK int, mode domain.SearchMode) ([]driven.Neighbor, error) {
	var filter driven.NeighborFilter
	maxDistance := 1 - s.minSimilarity
	limit := topK

	switch mode {
	case domain.SearchModeSymptoms:
		filter.ChunkType = domain.ChunkTypeSymptoms
	case domain.SearchModeRootCause:
		filter.ChunkType = domain.ChunkTypeRootCause
	case domain.SearchModeHybrid:
		maxDistance = 1 - hybridVectorWeight*s.minSimilarity
		limit = topK * 2
	}

	return s.chunks.NearestNeighbors(ctx, vector, maxDistance, filter, limit)
}

// rank converts distances to scores, applies hybrid boosting, and keeps the
// topK best. Ties break on chunk ID so ranking is deterministic.
func (s *RetrievalService) rank(neighbors []driven.Neighbor, query string, topK int, mode domain.SearchMode) []domain.RankedResult {
	keyword := boostKeyword(query)
	floor := s.minSimilarity
	if mode == domain.SearchModeHybrid {
		floor = hybridVectorWeight * s.minSimilarity
	}

	results := make([]domain.RankedResult, 0, len(neighbors))
	for _, n := range neighbors {
		score := 1 - n.Distance
		if mode == domain.SearchModeHybrid {
			var boost float64
			if strings.Contains(strings.ToLower(n.Chunk.Content), keyword) {
				boost = 1
			}
			score = hybridVectorWeight*score + hybridKeywordWeight*boost
		}
		if score < floor {
			continue
		}
		results = append(results, domain.RankedResult{Chunk: n.Chunk, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// hydrate attaches the parent page and parsed RCA to each result. A chunk
// whose page record is gone is dropped; a missing RCA leaves the field nil.
func (s *RetrievalService) hydrate(ctx context.Context, results []domain.RankedResult) ([]domain.RankedResult, error) {
	hydrated := results[:0]
	for _, r := range results {
		page, err := s.pages.GetPage(ctx, r.Chunk.PageID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Dropping chunk %s: page %s no longer tracked", r.Chunk.ID, r.Chunk.PageID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load page %s: %w", r.Chunk.PageID, err)
		}
		r.Page = *page

		rca, err := s.rcas.GetParsedRCA(ctx, r.Chunk.PageID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Chunks can outlive a reparse briefly; present without sections.
		case err != nil:
			return nil, fmt.Errorf("load parsed rca %s: %w", r.Chunk.PageID, err)
		default:
			r.RCA = rca
		}

		hydrated = append(hydrated, r)
	}
	return hydrated, nil
}

// boostKeyword picks the longest non-stopword token of the query, falling
// back to the whole lowered query when every token is a stopword.
func boostKeyword(query string) string {
	lowered := strings.ToLower(query)
	keyword := lowered
	best := 0
	for _, token := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		if len(token) > best {
			best = len(token)
			keyword = token
		}
	}
	return keyword
}
