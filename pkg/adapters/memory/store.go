package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/aretw0/kiln/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.RunRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.RunRecord),
	}
}

// Save keeps a copy of the record.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	if record.ID == "" {
		return errors.New("run ID cannot be empty")
	}
	copied := clone(record)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.ID] = copied
	return nil
}

// Load returns a copy so callers cannot mutate the stored record.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return clone(rec), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns run IDs oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*domain.RunRecord, 0, len(s.data))
	for _, rec := range s.data {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b *domain.RunRecord) int {
		if c := a.Started.Compare(b.Started); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids, nil
}

func clone(rec *domain.RunRecord) *domain.RunRecord {
	c := *rec
	c.Requested = slices.Clone(rec.Requested)
	c.Plan = slices.Clone(rec.Plan)
	c.Tasks = slices.Clone(rec.Tasks)
	if rec.Identity != nil {
		id := *rec.Identity
		c.Identity = &id
	}
	return &c
}
