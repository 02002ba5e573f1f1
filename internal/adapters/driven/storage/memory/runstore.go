package memory

import (
	"context"
	"sync"

	"github.com/opsrca/rcafinder/internal/core/domain"
	"github.com/opsrca/rcafinder/internal/core/ports/driven"
)

// Ensure SyncRunStore implements the interface.
var _ driven.SyncRunStore = (*SyncRunStore)(nil)

// SyncRunStore is an in-memory implementation of driven.SyncRunStore.
type SyncRunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.SyncRun
}

// NewSyncRunStore creates a new in-memory sync run store.
func NewSyncRunStore() *SyncRunStore {
	return &SyncRunStore{
		runs: make(map[string]domain.SyncRun),
	}
}

// SaveRun stores or updates a run.
func (s *SyncRunStore) SaveRun(_ context.Context, run *domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *run
	stored.Spaces = append([]string(nil), run.Spaces...)
	s.runs[run.ID] = stored
	return nil
}

// GetRun retrieves a run by ID.
func (s *SyncRunStore) GetRun(_ context.Context, id string) (*domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// LatestTerminalRun returns the most recently started terminal run,
// excluding excludeID.
func (s *SyncRunStore) LatestTerminalRun(_ context.Context, excludeID string) (*domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.SyncRun
	for id := range s.runs {
		run := s.runs[id]
		if run.ID == excludeID || !run.Terminal() {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			latest = &run
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}
