// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"slices"
)

// Group is one competing group (a weapon's pool of fencers) sharing the
// piste budget.
type Group struct {
	Name         string // unique within a list
	Participants int    // fencers in the round-robin, at least 2
	Resources    int    // pistes assigned, 0 means the group cannot fence
}

// ScheduleResult is the derived per-group schedule for one engine run.
type ScheduleResult struct {
	Name             string
	Rounds           int     // rounds needed for every pair to meet
	TimeRequired     float64 // Rounds * time unit
	UtilizationRatio float64 // 1.0 means demand-proportional
	Starved          bool    // no pistes assigned; Rounds and TimeRequired are unbounded
}

// Allocation holds one piste count per group, positionally aligned with the
// group list it was computed for.
type Allocation []int

// Sum returns the total number of pistes in the allocation.
func (a Allocation) Sum() int {
	total := 0
	for _, n := range a {
		total += n
	}
	return total
}

// Clone returns a copy that does not alias a.
func (a Allocation) Clone() Allocation {
	return slices.Clone(a)
}

// CloneGroups returns a snapshot of groups safe to hand to the engine.
func CloneGroups(groups []Group) []Group {
	return slices.Clone(groups)
}

// TotalResources sums the pistes currently assigned across groups.
func TotalResources(groups []Group) int {
	total := 0
	for _, g := range groups {
		total += g.Resources
	}
	return total
}

// Apply returns a copy of groups with Resources replaced positionally from
// alloc. The lengths must match.
func Apply(groups []Group, alloc Allocation) ([]Group, error) {
	if len(groups) != len(alloc) {
		return nil, fmt.Errorf("%w: %d groups, %d entries", ErrAllocationMismatch, len(groups), len(alloc))
	}
	out := CloneGroups(groups)
	for i := range out {
		out[i].Resources = alloc[i]
	}
	return out, nil
}

// Current extracts the allocation currently assigned to groups.
func Current(groups []Group) Allocation {
	alloc := make(Allocation, len(groups))
	for i, g := range groups {
		alloc[i] = g.Resources
	}
	return alloc
}
