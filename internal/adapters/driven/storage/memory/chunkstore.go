package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore. It keeps
// a reference to the page store so space-key filters can resolve a chunk's
// owning page.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.EmbeddedChunk
	pages  *PageStore
}

// NewChunkStore creates a new in-memory chunk store backed by pages for
// space-key resolution.
func NewChunkStore(pages *PageStore) *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string][]domain.EmbeddedChunk),
		pages:  pages,
	}
}

// SaveChunks appends chunks to their pages' chunk sets.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		s.chunks[chunk.PageID] = append(s.chunks[chunk.PageID], chunk)
	}
	return nil
}

// GetChunks returns all chunks for a page ordered by type then index.
func (s *ChunkStore) GetChunks(_ context.Context, pageID string) ([]domain.EmbeddedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.chunks[pageID]
	if !ok {
		return nil, nil
	}
	result := make([]domain.EmbeddedChunk, len(stored))
	copy(result, stored)
	sort.Slice(result, func(i, j int) bool {
		if result[i].ChunkType != result[j].ChunkType {
			return result[i].ChunkType < result[j].ChunkType
		}
		return result[i].ChunkIndex < result[j].ChunkIndex
	})
	return result, nil
}

// DeleteChunks removes every chunk belonging to a page.
func (s *ChunkStore) DeleteChunks(_ context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, pageID)
	return nil
}

// NearestNeighbors scans all chunks and returns up to limit hits whose
// cosine distance to query is below maxDistance, ascending by distance.
func (s *ChunkStore) NearestNeighbors(ctx context.Context, query []float32, maxDistance float64, filter driven.NeighborFilter, limit int) ([]driven.Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.Neighbor
	for pageID, chunks := range s.chunks {
		if filter.SpaceKey != "" && !s.pageInSpace(ctx, pageID, filter.SpaceKey) {
			continue
		}
		for _, chunk := range chunks {
			if filter.ChunkType != "" && chunk.ChunkType != filter.ChunkType {
				continue
			}
			dist, ok := cosineDistance(query, chunk.Embedding)
			if !ok || dist >= maxDistance {
				continue
			}
			hits = append(hits, driven.Neighbor{Chunk: chunk, Distance: dist})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *ChunkStore) pageInSpace(ctx context.Context, pageID, spaceKey string) bool {
	if s.pages == nil {
		return false
	}
	page, err := s.pages.GetPage(ctx, pageID)
	return err == nil && page.SpaceKey == spaceKey
}

// cosineDistance returns 1 - cosine similarity. The second return value is
// false for mismatched dimensions or a zero-magnitude vector.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}
