package cli

import "errors"

// Sentinel kinds for CLI errors.
var (
	ErrInvalidGroupFlag = errors.New("invalid --group value")
	ErrLoadPlan         = errors.New("failed to load plan file")
	ErrLoadFailed       = errors.New("load run had failures")
)
