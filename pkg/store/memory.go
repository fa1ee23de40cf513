package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/getmockd/stubd/internal/id"
	"github.com/getmockd/stubd/pkg/stub"
)

// InMemoryStore is a StubStore backed by a map.
type InMemoryStore struct {
	mu    sync.RWMutex
	stubs map[string]*stub.Definition
	now   func() time.Time
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		stubs: make(map[string]*stub.Definition),
		now:   time.Now,
	}
}

// Get returns a copy of the stub with the given id.
func (s *InMemoryStore) Get(ctx context.Context, stubID string) (*stub.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.stubs[stubID]
	if !ok {
		return nil, fmt.Errorf("stub %s: %w", stubID, ErrNotFound)
	}
	return def.Clone(), nil
}

// Put stores a copy of def.
func (s *InMemoryStore) Put(ctx context.Context, def *stub.Definition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if def == nil {
		return fmt.Errorf("%w: nil stub", ErrInvalidID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if def.ID == "" {
		def.ID = id.Sortable()
	}
	if existing, ok := s.stubs[def.ID]; ok && def.CreatedAt.IsZero() {
		def.CreatedAt = existing.CreatedAt
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now

	s.stubs[def.ID] = def.Clone()
	return nil
}

// Delete removes the stub with the given id.
func (s *InMemoryStore) Delete(ctx context.Context, stubID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stubs[stubID]; !ok {
		return fmt.Errorf("stub %s: %w", stubID, ErrNotFound)
	}
	delete(s.stubs, stubID)
	return nil
}

// List returns copies of matching stubs ordered by creation time, then id.
func (s *InMemoryStore) List(ctx context.Context, filter *Filter) ([]*stub.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*stub.Definition, 0, len(s.stubs))
	for _, def := range s.stubs {
		if filter.Matches(def) {
			out = append(out, def.Clone())
		}
	}
	SortByCreation(out)
	return out, nil
}

// Replace swaps the whole content of the store. Records without an id are
// skipped.
func (s *InMemoryStore) Replace(defs []*stub.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stubs = make(map[string]*stub.Definition, len(defs))
	for _, def := range defs {
		if def == nil || def.ID == "" {
			continue
		}
		s.stubs[def.ID] = def.Clone()
	}
}

// SortByCreation orders stubs by CreatedAt, breaking ties by id.
func SortByCreation(defs []*stub.Definition) {
	sort.SliceStable(defs, func(i, j int) bool {
		if !defs[i].CreatedAt.Equal(defs[j].CreatedAt) {
			return defs[i].CreatedAt.Before(defs[j].CreatedAt)
		}
		return defs[i].ID < defs[j].ID
	})
}

var _ StubStore = (*InMemoryStore)(nil)
