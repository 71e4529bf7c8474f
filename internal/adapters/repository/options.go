package repository

import "time"

// defaultMaxPlans bounds memory when no option is given.
const defaultMaxPlans = 10_000

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxPlans caps the number of plans; 0 removes the cap.
func WithMaxPlans(n int) Option {
	return func(s *MemoryStore) {
		if n >= 0 {
			s.maxPlans = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides plan ID generation, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}
