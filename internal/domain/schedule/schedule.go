// Package schedule computes per-group round-robin statistics for a given
// piste assignment.
package schedule

import (
	"fmt"
	"math"

	"github.com/okian/pistes/internal/domain/model"
)

// UnboundedRounds is reported for a group with no pistes: its round-robin
// never finishes.
const UnboundedRounds = math.MaxInt

// minParticipants is the smallest group for which a round-robin is defined.
const minParticipants = 2

// Pairs returns the number of unordered pairs among n participants.
func Pairs(n int) int {
	return n * (n - 1) / 2
}

// Rounds returns how many rounds n participants need on the given number of
// pistes for every pair to meet once.
func Rounds(n, pistes int) int {
	if pistes <= 0 {
		return UnboundedRounds
	}
	p := Pairs(n)
	return (p + pistes - 1) / pistes
}

// Compute derives the schedule of every group, in input order. timeUnit is
// the duration of one bout and budget the total number of pistes the
// utilization ratio is measured against.
//
// A group with zero pistes is reported as starved: unbounded rounds, infinite
// time, a ratio of 0, and no contribution to the total demand.
func Compute(groups []model.Group, timeUnit float64, budget int) ([]model.ScheduleResult, error) {
	if err := Validate(groups, timeUnit, budget); err != nil {
		return nil, err
	}
	return Evaluate(make([]model.ScheduleResult, 0, len(groups)), groups, timeUnit, budget), nil
}

// Evaluate is Compute without input validation. Results are appended to dst
// so repeated callers can reuse one buffer. Inputs must already have passed
// Validate.
func Evaluate(dst []model.ScheduleResult, groups []model.Group, timeUnit float64, budget int) []model.ScheduleResult {
	dst = dst[:0]

	totalDemand := 0.0
	for _, g := range groups {
		if g.Resources > 0 {
			totalDemand += float64(g.Participants) * float64(Rounds(g.Participants, g.Resources))
		}
	}

	for _, g := range groups {
		if g.Resources == 0 {
			dst = append(dst, model.ScheduleResult{
				Name:         g.Name,
				Rounds:       UnboundedRounds,
				TimeRequired: math.Inf(1),
				Starved:      true,
			})
			continue
		}

		rounds := Rounds(g.Participants, g.Resources)
		demand := float64(g.Participants) * float64(rounds)

		ratio := 0.0
		if totalDemand > 0 && budget > 0 {
			normalized := demand / totalDemand
			ratio = float64(g.Resources) / (normalized * float64(budget))
		}

		dst = append(dst, model.ScheduleResult{
			Name:             g.Name,
			Rounds:           rounds,
			TimeRequired:     float64(rounds) * timeUnit,
			UtilizationRatio: ratio,
		})
	}
	return dst
}

// Deviation scores a result set by summing |1 - ratio| over every group.
// A starved group makes the score +Inf so it never beats a schedule where
// every group can fence.
func Deviation(results []model.ScheduleResult) float64 {
	total := 0.0
	for _, r := range results {
		if r.Starved {
			return math.Inf(1)
		}
		total += math.Abs(1 - r.UtilizationRatio)
	}
	return total
}

// Validate checks the engine inputs and reports the first violation.
func Validate(groups []model.Group, timeUnit float64, budget int) error {
	if len(groups) == 0 {
		return ErrNoGroups
	}
	if math.IsNaN(timeUnit) || math.IsInf(timeUnit, 0) || timeUnit <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeUnit, timeUnit)
	}
	if budget < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBudget, budget)
	}
	return ValidateGroups(groups)
}

// ValidateGroups checks participant counts, piste counts and name uniqueness.
func ValidateGroups(groups []model.Group) error {
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g.Participants < minParticipants {
			return fmt.Errorf("%w: %q has %d participants, need at least %d", ErrInvalidGroup, g.Name, g.Participants, minParticipants)
		}
		if g.Resources < 0 {
			return fmt.Errorf("%w: %q has %d pistes", ErrInvalidGroup, g.Name, g.Resources)
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateGroup, g.Name)
		}
		seen[g.Name] = struct{}{}
	}
	return nil
}
