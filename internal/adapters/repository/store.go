// Package repository holds the plans callers edit: the group list, time unit
// and budget, plus the results derived from them.
package repository

import (
	"context"
	"slices"
	"time"

	"github.com/okian/pistes/internal/domain/model"
)

// Plan is one tournament setup and its last computed outcome.
type Plan struct {
	ID       string
	Groups   []model.Group
	TimeUnit float64
	Budget   int

	// Derived on every change; never edited directly.
	Results   []model.ScheduleResult
	Suggested model.Allocation
	Score     float64

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of p.
func (p Plan) Clone() Plan {
	p.Groups = slices.Clone(p.Groups)
	p.Results = slices.Clone(p.Results)
	p.Suggested = p.Suggested.Clone()
	return p
}

// Store provides read/write access to plans. Implementations hand out copies;
// callers never share memory with the store.
type Store interface {
	// Create stores p under a fresh ID and returns the stored copy.
	Create(ctx context.Context, p Plan) (Plan, error)

	// Get returns the plan with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (Plan, error)

	// Update applies fn to a copy of the plan and stores the result when fn
	// returns nil. The version is bumped on every successful update.
	Update(ctx context.Context, id string, fn func(*Plan) error) (Plan, error)

	// Delete removes the plan, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns all plans ordered by creation time.
	List(ctx context.Context) []Plan

	// Count returns the number of plans held.
	Count(ctx context.Context) int
}
