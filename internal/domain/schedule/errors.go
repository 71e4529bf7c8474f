package schedule

import "errors"

// Sentinel kinds for schedule errors. These allow errors.Is from callers.
var (
	ErrNoGroups        = errors.New("no groups")
	ErrInvalidGroup    = errors.New("invalid group")
	ErrDuplicateGroup  = errors.New("duplicate group name")
	ErrInvalidTimeUnit = errors.New("time unit must be positive")
	ErrInvalidBudget   = errors.New("budget must not be negative")
)
