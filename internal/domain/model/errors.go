package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrAllocationMismatch = errors.New("allocation length does not match group count")
)
