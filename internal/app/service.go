// Package service provides the core business service behind the HTTP API and
// the CLI: stateless schedule/suggest calls plus editable plans that are
// recomputed on every change.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pistes/internal/adapters/cache"
	repository "github.com/okian/pistes/internal/adapters/repository"
	"github.com/okian/pistes/internal/domain/allocation"
	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/internal/domain/schedule"
	"github.com/okian/pistes/pkg/logger"
	"github.com/okian/pistes/pkg/metrics"
)

// Allocation states reported by Status.
const (
	StateUnder = "under"
	StateExact = "exact"
	StateOver  = "over"
)

// Plan mutation kinds, used as metric labels.
const (
	mutationCreate       = "create"
	mutationResources    = "resources"
	mutationParticipants = "participants"
	mutationGroup        = "group"
	mutationSettings     = "settings"
	mutationApply        = "apply"
)

// AllocationStatus compares the pistes handed out in a plan with its budget.
type AllocationStatus struct {
	Allocated int
	Remaining int
	State     string
}

// PlanInput seeds a new plan. Zero values fall back to the service defaults.
type PlanInput struct {
	Groups   []model.Group
	TimeUnit float64
	Budget   int
}

// GroupUpdate changes one group of a plan; nil leaves a value alone.
type GroupUpdate struct {
	Participants *int
	Pistes       *int
}

// Settings changes a plan's time unit and/or budget; nil leaves a value alone.
type Settings struct {
	TimeUnit *float64
	Budget   *int
}

// Service implements the API dependencies for the piste allocator.
type Service struct {
	mu sync.RWMutex

	// Core components
	plans       repository.Store
	suggestions *cache.Suggestions
	metrics     *metrics.Manager

	// Configuration
	maxGroups       int
	maxCompositions uint64
	minBudget       int
	cacheSize       int
	defaultGroups   []model.Group
	defaultTimeUnit float64
	defaultBudget   int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxGroups:       10,
		maxCompositions: 10_000_000,
		minBudget:       3,
		cacheSize:       1024,
		defaultGroups: []model.Group{
			{Name: "Epee", Participants: 4, Resources: 2},
			{Name: "Foil", Participants: 4, Resources: 2},
			{Name: "Saber", Participants: 4, Resources: 2},
		},
		defaultTimeUnit: 5,
		defaultBudget:   6,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	if s.plans == nil {
		s.plans = repository.NewMemoryStore()
	}
	suggestions, err := cache.NewSuggestions(s.cacheSize)
	if err != nil {
		return fmt.Errorf("suggestion cache: %w", err)
	}
	s.suggestions = suggestions

	s.started = true
	s.logger.Info(ctx, "piste allocator started",
		logger.Int("maxGroups", s.maxGroups),
		logger.Uint64("maxCompositions", s.maxCompositions),
		logger.Int("cacheSize", s.cacheSize),
	)
	return nil
}

// Stop marks the service as stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "piste allocator stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) checkGroupCount(groups []model.Group) error {
	if len(groups) > s.maxGroups {
		return fmt.Errorf("%w: %d groups, limit %d", ErrTooManyGroups, len(groups), s.maxGroups)
	}
	return nil
}

// Schedule computes the per-group schedule for the groups as assigned.
func (s *Service) Schedule(ctx context.Context, groups []model.Group, timeUnit float64, budget int) ([]model.ScheduleResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.checkGroupCount(groups); err != nil {
		return nil, err
	}
	results, err := schedule.Compute(model.CloneGroups(groups), timeUnit, budget)
	if err != nil {
		s.metrics.RecordErrorByComponent("schedule", "invalid_input")
		return nil, err
	}
	s.metrics.RecordScheduleComputation()
	return results, nil
}

// Suggest searches for the best allocation of budget across groups. Results
// for identical inputs are served from the cache.
func (s *Service) Suggest(ctx context.Context, groups []model.Group, timeUnit float64, budget int) (allocation.Suggestion, error) {
	if err := s.ready(); err != nil {
		return allocation.Suggestion{}, err
	}
	if err := s.checkGroupCount(groups); err != nil {
		return allocation.Suggestion{}, err
	}

	// The cache key ignores pistes, so invalid input must be caught before a lookup.
	if err := schedule.Validate(groups, timeUnit, budget); err != nil {
		s.metrics.RecordSearch(metrics.OutcomeInvalid, 0, 0)
		s.metrics.RecordErrorByComponent("search", metrics.OutcomeInvalid)
		return allocation.Suggestion{}, err
	}

	if sug, ok := s.suggestions.Get(groups, timeUnit, budget); ok {
		s.metrics.RecordCacheHit()
		return sug, nil
	}
	s.metrics.RecordCacheMiss()

	start := time.Now()
	sug, err := allocation.Search(model.CloneGroups(groups), timeUnit, budget,
		allocation.WithMaxCompositions(s.maxCompositions))
	elapsedMs := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		outcome := metrics.OutcomeInvalid
		if errors.Is(err, allocation.ErrSearchSpaceTooLarge) {
			outcome = metrics.OutcomeTooLarge
		}
		s.metrics.RecordSearch(outcome, 0, elapsedMs)
		s.metrics.RecordErrorByComponent("search", outcome)
		s.logger.Warn(ctx, "allocation search refused",
			logger.Int("groups", len(groups)),
			logger.Int("budget", budget),
			logger.Error(err),
		)
		return allocation.Suggestion{}, err
	}

	s.metrics.RecordSearch(metrics.OutcomeOK, sug.Evaluated, elapsedMs)
	s.metrics.UpdateBestScore(sug.Score)
	s.logger.Debug(ctx, "allocation search finished",
		logger.Int("groups", len(groups)),
		logger.Int("budget", budget),
		logger.Uint64("evaluated", sug.Evaluated),
		logger.Float64("score", sug.Score),
		logger.Float64("elapsedMs", elapsedMs),
	)
	s.suggestions.Add(groups, timeUnit, budget, sug)
	return sug, nil
}

// Estimate returns the largest-remainder split of budget by pair count.
func (s *Service) Estimate(ctx context.Context, groups []model.Group, budget int) (model.Allocation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.checkGroupCount(groups); err != nil {
		return nil, err
	}
	return allocation.Proportional(groups, budget)
}

// SearchSpace returns how many candidates a suggestion for the shape scores.
func (s *Service) SearchSpace(groupCount, budget int) (uint64, error) {
	return allocation.Count(groupCount, budget)
}

// recompute refreshes the derived fields of p from its inputs.
func (s *Service) recompute(ctx context.Context, p *repository.Plan) error {
	if err := s.checkGroupCount(p.Groups); err != nil {
		return err
	}
	results, err := schedule.Compute(p.Groups, p.TimeUnit, p.Budget)
	if err != nil {
		return err
	}
	sug, err := s.Suggest(ctx, p.Groups, p.TimeUnit, p.Budget)
	if err != nil {
		return err
	}
	p.Results = results
	p.Suggested = sug.Allocation
	p.Score = sug.Score
	return nil
}

// CreatePlan stores a new plan and computes its results and suggestion.
func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (repository.Plan, error) {
	if err := s.ready(); err != nil {
		return repository.Plan{}, err
	}

	p := repository.Plan{
		Groups:   model.CloneGroups(in.Groups),
		TimeUnit: in.TimeUnit,
		Budget:   in.Budget,
	}
	if len(p.Groups) == 0 {
		p.Groups = model.CloneGroups(s.defaultGroups)
	}
	if p.TimeUnit == 0 {
		p.TimeUnit = s.defaultTimeUnit
	}
	if p.Budget == 0 {
		p.Budget = s.defaultBudget
	}
	p.Budget = max(p.Budget, s.minBudget)

	if err := s.recompute(ctx, &p); err != nil {
		return repository.Plan{}, err
	}
	created, err := s.plans.Create(ctx, p)
	if err != nil {
		return repository.Plan{}, err
	}

	s.metrics.RecordPlanMutation(mutationCreate)
	s.metrics.UpdatePlansActive(s.plans.Count(ctx))
	s.logger.Info(ctx, "plan created",
		logger.String("plan", created.ID),
		logger.Int("groups", len(created.Groups)),
		logger.Int("budget", created.Budget),
	)
	return created, nil
}

// GetPlan returns a plan by id.
func (s *Service) GetPlan(ctx context.Context, id string) (repository.Plan, error) {
	if err := s.ready(); err != nil {
		return repository.Plan{}, err
	}
	return s.plans.Get(ctx, id)
}

// ListPlans returns every plan in creation order.
func (s *Service) ListPlans(ctx context.Context) ([]repository.Plan, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.plans.List(ctx), nil
}

// DeletePlan removes a plan.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.UpdatePlansActive(s.plans.Count(ctx))
	s.logger.Info(ctx, "plan deleted", logger.String("plan", id))
	return nil
}

func (s *Service) mutate(ctx context.Context, id, kind string, fn func(*repository.Plan) error) (repository.Plan, error) {
	if err := s.ready(); err != nil {
		return repository.Plan{}, err
	}
	p, err := s.plans.Update(ctx, id, func(p *repository.Plan) error {
		if err := fn(p); err != nil {
			return err
		}
		return s.recompute(ctx, p)
	})
	if err != nil {
		return repository.Plan{}, err
	}
	s.metrics.RecordPlanMutation(kind)
	s.logger.Debug(ctx, "plan recomputed",
		logger.String("plan", id),
		logger.String("kind", kind),
		logger.Any("suggested", p.Suggested),
	)
	return p, nil
}

func findGroup(p *repository.Plan, name string) (int, error) {
	for i, g := range p.Groups {
		if g.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrGroupNotFound, name)
}

// SetResources assigns pistes to one group. Raising a group's pistes is
// refused once the plan already hands out its whole budget.
func (s *Service) SetResources(ctx context.Context, id, name string, pistes int) (repository.Plan, error) {
	return s.UpdateGroup(ctx, id, name, GroupUpdate{Pistes: &pistes})
}

// SetParticipants changes the number of fencers in one group.
func (s *Service) SetParticipants(ctx context.Context, id, name string, participants int) (repository.Plan, error) {
	return s.UpdateGroup(ctx, id, name, GroupUpdate{Participants: &participants})
}

// UpdateGroup changes a group's fencers and/or pistes as one mutation.
// Participants are applied first; if any part is refused the stored plan is
// left as it was.
func (s *Service) UpdateGroup(ctx context.Context, id, name string, in GroupUpdate) (repository.Plan, error) {
	kind := mutationGroup
	switch {
	case in.Participants == nil && in.Pistes == nil:
		return repository.Plan{}, fmt.Errorf("%w: group %q", ErrEmptyUpdate, name)
	case in.Pistes == nil:
		kind = mutationParticipants
	case in.Participants == nil:
		kind = mutationResources
	}
	return s.mutate(ctx, id, kind, func(p *repository.Plan) error {
		i, err := findGroup(p, name)
		if err != nil {
			return err
		}
		if in.Participants != nil {
			p.Groups[i].Participants = *in.Participants
		}
		if in.Pistes != nil {
			return s.assignPistes(p, i, *in.Pistes)
		}
		return nil
	})
}

func (s *Service) assignPistes(p *repository.Plan, i, pistes int) error {
	name := p.Groups[i].Name
	if pistes < 0 {
		return fmt.Errorf("%w: %q cannot have %d pistes", schedule.ErrInvalidGroup, name, pistes)
	}
	if pistes > p.Groups[i].Resources && model.TotalResources(p.Groups) >= p.Budget {
		s.metrics.RecordBudgetExhausted()
		return fmt.Errorf("%w: %d of %d pistes allocated", ErrBudgetExhausted, model.TotalResources(p.Groups), p.Budget)
	}
	p.Groups[i].Resources = pistes
	return nil
}

// UpdateSettings changes a plan's time unit and/or budget. Budgets below the
// configured minimum are raised to it.
func (s *Service) UpdateSettings(ctx context.Context, id string, in Settings) (repository.Plan, error) {
	return s.mutate(ctx, id, mutationSettings, func(p *repository.Plan) error {
		if in.TimeUnit != nil {
			p.TimeUnit = *in.TimeUnit
		}
		if in.Budget != nil {
			if *in.Budget < 0 {
				return fmt.Errorf("%w: %d", schedule.ErrInvalidBudget, *in.Budget)
			}
			p.Budget = max(*in.Budget, s.minBudget)
		}
		return nil
	})
}

// ApplySuggested copies the plan's suggested allocation into its groups.
func (s *Service) ApplySuggested(ctx context.Context, id string) (repository.Plan, error) {
	return s.mutate(ctx, id, mutationApply, func(p *repository.Plan) error {
		applied, err := model.Apply(p.Groups, p.Suggested)
		if err != nil {
			return err
		}
		p.Groups = applied
		return nil
	})
}

// Status reports how much of the plan's budget is handed out.
func Status(p repository.Plan) AllocationStatus {
	allocated := model.TotalResources(p.Groups)
	st := AllocationStatus{Allocated: allocated, Remaining: p.Budget - allocated}
	switch {
	case allocated < p.Budget:
		st.State = StateUnder
	case allocated == p.Budget:
		st.State = StateExact
	default:
		st.State = StateOver
	}
	return st
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"maxGroups":       s.maxGroups,
		"maxCompositions": s.maxCompositions,
		"cacheSize":       s.cacheSize,
	}

	if s.started {
		plans := s.plans.Count(context.Background())
		stats["plans"] = plans
		stats["cachedSuggestions"] = s.suggestions.Len()
		s.metrics.UpdatePlansActive(plans)
	}

	return stats
}
