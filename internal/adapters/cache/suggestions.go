// Package cache memoizes allocation searches for identical inputs.
package cache

import (
	"slices"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/okian/pistes/internal/domain/allocation"
	"github.com/okian/pistes/internal/domain/model"
)

// Suggestions is a bounded LRU of search results keyed by everything a search
// depends on: group names and sizes, the time unit and the budget. Assigned
// pistes are not part of the key since a search replaces them.
type Suggestions struct {
	cache *lru.Cache
}

// NewSuggestions returns a cache holding up to size results. A size of zero
// or less yields a cache that never stores anything.
func NewSuggestions(size int) (*Suggestions, error) {
	if size <= 0 {
		return &Suggestions{}, nil
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Suggestions{cache: c}, nil
}

// Get returns a copy of the cached suggestion for the inputs.
func (s *Suggestions) Get(groups []model.Group, timeUnit float64, budget int) (allocation.Suggestion, bool) {
	if s.cache == nil {
		return allocation.Suggestion{}, false
	}
	v, ok := s.cache.Get(Key(groups, timeUnit, budget))
	if !ok {
		return allocation.Suggestion{}, false
	}
	return clone(v.(allocation.Suggestion)), true
}

// Add stores a copy of the suggestion for the inputs.
func (s *Suggestions) Add(groups []model.Group, timeUnit float64, budget int, sug allocation.Suggestion) {
	if s.cache == nil {
		return
	}
	s.cache.Add(Key(groups, timeUnit, budget), clone(sug))
}

// Len reports the number of cached entries.
func (s *Suggestions) Len() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// Key fingerprints the search inputs.
func Key(groups []model.Group, timeUnit float64, budget int) string {
	var b strings.Builder
	b.WriteString(strconv.FormatFloat(timeUnit, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(budget))
	for _, g := range groups {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(g.Name))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(g.Participants))
	}
	return b.String()
}

func clone(s allocation.Suggestion) allocation.Suggestion {
	s.Allocation = s.Allocation.Clone()
	s.Results = slices.Clone(s.Results)
	return s
}
