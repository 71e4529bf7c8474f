// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and PISTES_* environment variables on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"

	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/internal/domain/schedule"
)

// GroupConfig describes one group of the default plan.
type GroupConfig struct {
	Name         string `koanf:"name"`
	Participants int    `koanf:"participants"`
	Pistes       int    `koanf:"pistes"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text, json or console output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TimeUnit is the default bout duration in minutes for new plans.
	TimeUnit float64 `koanf:"time_unit"`

	// Budget is the default number of pistes for new plans.
	Budget int `koanf:"budget"`

	// MinBudget is the smallest budget a plan accepts; lower values are raised to it.
	MinBudget int `koanf:"min_budget"`

	// MaxGroups caps the number of groups per request or plan.
	MaxGroups int `koanf:"max_groups"`

	// MaxCompositions refuses searches with a larger candidate space. 0 disables.
	MaxCompositions uint64 `koanf:"max_compositions"`

	// CacheSize bounds the suggestion cache; 0 disables caching.
	CacheSize int `koanf:"cache_size"`

	// MaxRequestBytes caps JSON request bodies.
	MaxRequestBytes int64 `koanf:"max_request_bytes"`

	// Groups seeds new plans.
	Groups []GroupConfig `koanf:"groups"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		TimeUnit:        5,
		Budget:          6,
		MinBudget:       3,
		MaxGroups:       10,
		MaxCompositions: 10_000_000,
		CacheSize:       1024,
		MaxRequestBytes: 1 << 20,
		Groups: []GroupConfig{
			{Name: "Epee", Participants: 4, Pistes: 2},
			{Name: "Foil", Participants: 4, Pistes: 2},
			{Name: "Saber", Participants: 4, Pistes: 2},
		},
	}
}

// DefaultGroups converts the configured groups into domain groups.
func (c *Config) DefaultGroups() []model.Group {
	groups := make([]model.Group, len(c.Groups))
	for i, g := range c.Groups {
		groups[i] = model.Group{Name: g.Name, Participants: g.Participants, Resources: g.Pistes}
	}
	return groups
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TimeUnit <= 0:
		return fmt.Errorf("%w: time_unit must be positive", ErrInvalidConfig)
	case c.Budget < 0:
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidConfig)
	case c.MinBudget < 0:
		return fmt.Errorf("%w: min_budget must not be negative", ErrInvalidConfig)
	case c.MaxGroups < 1:
		return fmt.Errorf("%w: max_groups must be at least 1", ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	case c.MaxRequestBytes <= 0:
		return fmt.Errorf("%w: max_request_bytes must be positive", ErrInvalidConfig)
	case len(c.Groups) == 0:
		return fmt.Errorf("%w: at least one group is required", ErrInvalidConfig)
	case len(c.Groups) > c.MaxGroups:
		return fmt.Errorf("%w: %d groups exceed max_groups %d", ErrInvalidConfig, len(c.Groups), c.MaxGroups)
	}
	if err := schedule.ValidateGroups(c.DefaultGroups()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
