package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockSource implements driven.DocumentSource for testing.
type mockSource struct {
	mu sync.Mutex

	pagesBySpace map[string][]domain.PageContent
	byID         map[string]domain.PageContent
	modified     []domain.PageContent

	fetchErr    error
	byIDErr     error
	modifiedErr error

	fetchCalls    []string
	modifiedSince []time.Time
}

func (m *mockSource) FetchPages(_ context.Context, spaceKey string, _ []string) ([]domain.PageContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls = append(m.fetchCalls, spaceKey)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.pagesBySpace[spaceKey], nil
}

func (m *mockSource) FetchPageByID(_ context.Context, id string) (*domain.PageContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byIDErr != nil {
		return nil, m.byIDErr
	}
	content, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &content, nil
}

func (m *mockSource) FetchModifiedSince(_ context.Context, since time.Time, _, _ []string) ([]domain.PageContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modifiedSince = append(m.modifiedSince, since)
	if m.modifiedErr != nil {
		return nil, m.modifiedErr
	}
	return m.modified, nil
}

// mockEmbedder implements driven.EmbeddingProvider for testing.
type mockEmbedder struct {
	vector []float32

	// failTexts yields an empty vector for matching batch items.
	failTexts map[string]bool

	// batchErrOn fails the whole batch when any text contains the substring.
	batchErrOn string

	embedErr error
	batchErr error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if m.batchErrOn != "" && strings.Contains(text, m.batchErrOn) {
			return nil, domain.ErrUpstreamFailure
		}
		if m.failTexts[text] {
			result[i] = []float32{}
			continue
		}
		result[i] = m.vector
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	return len(m.vector)
}

func (m *mockEmbedder) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbedder) Close() error {
	return nil
}

// mockNeighborStore implements driven.ChunkStore with canned neighbours and
// records the query arguments it was last called with.
type mockNeighborStore struct {
	neighbors []driven.Neighbor
	queryErr  error

	lastMaxDistance float64
	lastFilter      driven.NeighborFilter
	lastLimit       int
}

func (m *mockNeighborStore) SaveChunks(_ context.Context, _ []domain.EmbeddedChunk) error {
	return nil
}

func (m *mockNeighborStore) GetChunks(_ context.Context, _ string) ([]domain.EmbeddedChunk, error) {
	return nil, nil
}

func (m *mockNeighborStore) DeleteChunks(_ context.Context, _ string) error {
	return nil
}

func (m *mockNeighborStore) NearestNeighbors(_ context.Context, _ []float32, maxDistance float64, filter driven.NeighborFilter, limit int) ([]driven.Neighbor, error) {
	m.lastMaxDistance = maxDistance
	m.lastFilter = filter
	m.lastLimit = limit
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	hits := m.neighbors
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
