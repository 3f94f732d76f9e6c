package memory

import (
	"context"
	"sync"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Run
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Run),
	}
}

// Save persists a copy of the run in memory.
func (s *Store) Save(ctx context.Context, run *domain.Run) error {
	copied := copyRun(run)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[run.ID] = copied
	return nil
}

// Load retrieves the run from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.data[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return copyRun(run), nil
}

// Delete removes the run.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored runs, oldest first.
func (s *Store) List(ctx context.Context) ([]domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.RunSummary, 0, len(s.data))
	for _, r := range s.data {
		runs = append(runs, r.Summary())
	}
	domain.SortRunSummaries(runs)
	return runs, nil
}

func copyRun(r *domain.Run) *domain.Run {
	c := *r
	if r.HaltedAt != nil {
		h := *r.HaltedAt
		c.HaltedAt = &h
	}
	c.Log = r.Log.Clone()
	return &c
}
