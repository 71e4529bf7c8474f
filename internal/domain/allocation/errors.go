package allocation

import "errors"

// Sentinel kinds for allocation errors.
var (
	ErrInvalidShape        = errors.New("group count must be at least 1 and budget non-negative")
	ErrSearchSpaceTooLarge = errors.New("search space too large")
)
