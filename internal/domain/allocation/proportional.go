package allocation

import (
	"math"
	"slices"

	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/internal/domain/schedule"
)

// Proportional splits budget in proportion to each group's pair count using
// the largest remainder method. It is a quick estimate for inputs too large
// to search; it does not minimize the deviation Search minimizes.
func Proportional(groups []model.Group, budget int) (model.Allocation, error) {
	if err := schedule.ValidateGroups(groups); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, schedule.ErrNoGroups
	}
	if budget < 0 {
		return nil, schedule.ErrInvalidBudget
	}

	totalPairs := 0.0
	for _, g := range groups {
		totalPairs += float64(schedule.Pairs(g.Participants))
	}

	exact := make([]float64, len(groups))
	fair := make(model.Allocation, len(groups))
	assigned := 0
	for i, g := range groups {
		exact[i] = float64(budget) * float64(schedule.Pairs(g.Participants)) / totalPairs
		fair[i] = int(math.Floor(exact[i]))
		assigned += fair[i]
	}

	// Hand the pistes lost to flooring to the largest fractional parts;
	// equal remainders go to the earlier group.
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ra := exact[a] - math.Floor(exact[a])
		rb := exact[b] - math.Floor(exact[b])
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		default:
			return 0
		}
	})
	for _, i := range order[:min(budget-assigned, len(order))] {
		fair[i]++
	}
	return fair, nil
}
