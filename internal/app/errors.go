package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrTooManyGroups   = errors.New("too many groups")
	ErrGroupNotFound   = errors.New("group not found")
	ErrBudgetExhausted = errors.New("budget fully allocated")
	ErrEmptyUpdate     = errors.New("update changes nothing")
)
