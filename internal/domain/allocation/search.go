package allocation

import (
	"fmt"

	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/internal/domain/schedule"
)

// Suggestion is the outcome of an exhaustive search.
type Suggestion struct {
	// Allocation is the best split, aligned with the searched groups.
	Allocation model.Allocation
	// Score is the summed |1 - ratio| of Allocation; +Inf when every
	// candidate leaves some group without a piste.
	Score float64
	// Results is the schedule the groups get under Allocation.
	Results []model.ScheduleResult
	// Evaluated counts the candidates scored.
	Evaluated uint64
}

type searcher struct {
	maxCompositions uint64
}

// Search scores every composition of budget across groups and returns the one
// with the smallest deviation. Each candidate is evaluated with the original
// timeUnit and budget. Ties go to the candidate enumerated first.
func Search(groups []model.Group, timeUnit float64, budget int, opts ...Option) (Suggestion, error) {
	s := &searcher{maxCompositions: defaultMaxCompositions}
	for _, opt := range opts {
		opt(s)
	}

	if err := schedule.Validate(groups, timeUnit, budget); err != nil {
		return Suggestion{}, err
	}
	total, err := Count(len(groups), budget)
	if err != nil {
		return Suggestion{}, err
	}
	if s.maxCompositions > 0 && total > s.maxCompositions {
		return Suggestion{}, fmt.Errorf("%w: %d compositions exceed limit %d", ErrSearchSpaceTooLarge, total, s.maxCompositions)
	}

	scratch := model.CloneGroups(groups)
	buf := make([]model.ScheduleResult, 0, len(groups))

	var best Suggestion
	for alloc := range walk(len(groups), budget) {
		for i := range scratch {
			scratch[i].Resources = alloc[i]
		}
		buf = schedule.Evaluate(buf, scratch, timeUnit, budget)
		score := schedule.Deviation(buf)
		best.Evaluated++

		if best.Allocation == nil || score < best.Score {
			best.Score = score
			best.Allocation = alloc.Clone()
		}
	}

	applied, err := model.Apply(groups, best.Allocation)
	if err != nil {
		return Suggestion{}, err
	}
	best.Results = schedule.Evaluate(nil, applied, timeUnit, budget)
	return best, nil
}

// Suggest returns only the best allocation of Search.
func Suggest(groups []model.Group, timeUnit float64, budget int, opts ...Option) (model.Allocation, error) {
	s, err := Search(groups, timeUnit, budget, opts...)
	if err != nil {
		return nil, err
	}
	return s.Allocation, nil
}

// Score evaluates a single allocation the way Search does.
func Score(groups []model.Group, alloc model.Allocation, timeUnit float64, budget int) (float64, error) {
	applied, err := model.Apply(groups, alloc)
	if err != nil {
		return 0, err
	}
	results, err := schedule.Compute(applied, timeUnit, budget)
	if err != nil {
		return 0, err
	}
	return schedule.Deviation(results), nil
}
