package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store guarded by a single RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	plans    map[string]Plan
	maxPlans int
	now      func() time.Time
	newID    func() string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		plans:    make(map[string]Plan),
		maxPlans: defaultMaxPlans,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, p Plan) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxPlans > 0 && len(s.plans) >= s.maxPlans {
		return Plan{}, fmt.Errorf("%w: limit %d", ErrTooManyPlans, s.maxPlans)
	}

	p = p.Clone()
	p.ID = s.newID()
	p.Version = 1
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.plans[p.ID] = p
	return p.Clone(), nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Plan) error) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := cur.Clone()
	if err := fn(&next); err != nil {
		return Plan{}, err
	}
	// Identity fields are owned by the store.
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	next.UpdatedAt = s.now()
	s.plans[id] = next
	return next.Clone(), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.plans, id)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) []Plan {
	s.mu.RLock()
	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}
