// Package memory provides in-memory store implementations, used in tests
// and as a fallback when no database path is configured.
package memory

import (
	"context"
	"sync"

	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
)

// Ensure PageStore implements the interfaces.
var (
	_ driven.PageStore      = (*PageStore)(nil)
	_ driven.ParsedRCAStore = (*PageStore)(nil)
)

// PageStore is an in-memory implementation of driven.PageStore and
// driven.ParsedRCAStore.
type PageStore struct {
	mu    sync.RWMutex
	pages map[string]domain.Page
	rcas  map[string]domain.ParsedRCA
}

// NewPageStore creates a new in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{
		pages: make(map[string]domain.Page),
		rcas:  make(map[string]domain.ParsedRCA),
	}
}

// SavePage stores or replaces a page record.
func (s *PageStore) SavePage(_ context.Context, page *domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.PageID] = *page
	return nil
}

// GetPage retrieves a page by its source identifier.
func (s *PageStore) GetPage(_ context.Context, pageID string) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[pageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &page, nil
}

// ListPages returns all tracked pages, optionally filtered by space key.
func (s *PageStore) ListPages(_ context.Context, spaceKey string) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Page
	for id := range s.pages {
		page := s.pages[id]
		if spaceKey == "" || page.SpaceKey == spaceKey {
			result = append(result, page)
		}
	}
	return result, nil
}

// SaveParsedRCA replaces the parsed RCA for a page.
func (s *PageStore) SaveParsedRCA(_ context.Context, rca *domain.ParsedRCA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rcas[rca.PageID] = *rca
	return nil
}

// GetParsedRCA retrieves the parsed RCA for a page.
func (s *PageStore) GetParsedRCA(_ context.Context, pageID string) (*domain.ParsedRCA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rca, ok := s.rcas[pageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rca, nil
}
