package repository

import "errors"

// Sentinel kinds for plan store errors.
var (
	ErrNotFound     = errors.New("plan not found")
	ErrTooManyPlans = errors.New("too many plans")
)
