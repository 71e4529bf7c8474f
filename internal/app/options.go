package service

import (
	repository "github.com/okian/pistes/internal/adapters/repository"
	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/pkg/logger"
	"github.com/okian/pistes/pkg/metrics"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager; the process-wide one is used otherwise.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithStore sets the plan store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.plans = store
		}
	}
}

// WithMaxGroups caps the groups accepted per call or plan.
func WithMaxGroups(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxGroups = n
		}
	}
}

// WithMaxCompositions caps the search space; 0 disables the cap.
func WithMaxCompositions(n uint64) Option {
	return func(s *Service) {
		s.maxCompositions = n
	}
}

// WithMinBudget sets the smallest budget a plan accepts.
func WithMinBudget(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.minBudget = n
		}
	}
}

// WithCacheSize sets the suggestion cache size; 0 disables caching.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.cacheSize = n
		}
	}
}

// WithDefaults sets what new plans start from when the caller leaves fields empty.
func WithDefaults(groups []model.Group, timeUnit float64, budget int) Option {
	return func(s *Service) {
		if len(groups) > 0 {
			s.defaultGroups = model.CloneGroups(groups)
		}
		if timeUnit > 0 {
			s.defaultTimeUnit = timeUnit
		}
		if budget > 0 {
			s.defaultBudget = budget
		}
	}
}
