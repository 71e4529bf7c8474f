// Package allocation searches the ways of splitting a piste budget across
// groups for the split whose utilization is closest to proportional.
package allocation

import (
	"fmt"
	"iter"
	"math/bits"

	"github.com/okian/pistes/internal/domain/model"
)

// Compositions yields every way of writing budget as an ordered sum of
// groupCount non-negative parts. The first slot counts up from 0 to budget and
// the remaining slots are filled recursively, so the sequence is in
// lexicographic order. Each yielded allocation is a fresh slice.
func Compositions(groupCount, budget int) iter.Seq[model.Allocation] {
	return func(yield func(model.Allocation) bool) {
		for alloc := range walk(groupCount, budget) {
			if !yield(alloc.Clone()) {
				return
			}
		}
	}
}

// All collects Compositions into a slice.
func All(groupCount, budget int) []model.Allocation {
	var out []model.Allocation
	for alloc := range Compositions(groupCount, budget) {
		out = append(out, alloc)
	}
	return out
}

// walk is Compositions without the copy: the yielded slice is reused and only
// valid until the next iteration.
func walk(groupCount, budget int) iter.Seq[model.Allocation] {
	return func(yield func(model.Allocation) bool) {
		if groupCount < 1 || budget < 0 {
			return
		}
		prefix := make(model.Allocation, groupCount)
		compose(prefix, 0, budget, yield)
	}
}

func compose(prefix model.Allocation, slot, remaining int, yield func(model.Allocation) bool) bool {
	if slot == len(prefix)-1 {
		prefix[slot] = remaining
		return yield(prefix)
	}
	for i := 0; i <= remaining; i++ {
		prefix[slot] = i
		if !compose(prefix, slot+1, remaining-i, yield) {
			return false
		}
	}
	return true
}

// Count returns the number of compositions of budget into groupCount parts,
// C(budget+groupCount-1, groupCount-1), without enumerating them.
func Count(groupCount, budget int) (uint64, error) {
	if groupCount < 1 || budget < 0 {
		return 0, fmt.Errorf("%w: %d groups, budget %d", ErrInvalidShape, groupCount, budget)
	}
	n := uint64(budget) + uint64(groupCount) - 1
	k := uint64(groupCount - 1)
	if b := uint64(budget); b < k {
		k = b
	}

	result := uint64(1)
	for i := uint64(1); i <= k; i++ {
		// result*(n-k+i) is always divisible by i.
		hi, lo := bits.Mul64(result, n-k+i)
		if hi >= i {
			return 0, fmt.Errorf("%w: C(%d, %d) overflows", ErrSearchSpaceTooLarge, n, k)
		}
		result, _ = bits.Div64(hi, lo, i)
	}
	return result, nil
}
