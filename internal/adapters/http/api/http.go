// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	repository "github.com/okian/pistes/internal/adapters/repository"
	service "github.com/okian/pistes/internal/app"
	"github.com/okian/pistes/internal/domain/allocation"
	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/internal/domain/schedule"
)

const defaultMaxBodyBytes int64 = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Schedule(ctx context.Context, groups []model.Group, timeUnit float64, budget int) ([]model.ScheduleResult, error)
	Suggest(ctx context.Context, groups []model.Group, timeUnit float64, budget int) (allocation.Suggestion, error)
	Estimate(ctx context.Context, groups []model.Group, budget int) (model.Allocation, error)

	PlanDependencies
}

// PlanDependencies covers the editable plans.
type PlanDependencies interface {
	CreatePlan(ctx context.Context, in service.PlanInput) (repository.Plan, error)
	GetPlan(ctx context.Context, id string) (repository.Plan, error)
	ListPlans(ctx context.Context) ([]repository.Plan, error)
	DeletePlan(ctx context.Context, id string) error
	UpdateGroup(ctx context.Context, id, name string, in service.GroupUpdate) (repository.Plan, error)
	UpdateSettings(ctx context.Context, id string, in service.Settings) (repository.Plan, error)
	ApplySuggested(ctx context.Context, id string) (repository.Plan, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	scheduleHandler *ScheduleHandler
	plansHandler    *PlansHandler
}

// NewServer creates a new API server with all handlers. maxBodyBytes caps
// request bodies; zero or less means the 1 MiB default.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBodyBytes int64) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		scheduleHandler: NewScheduleHandler(deps, maxBodyBytes),
		plansHandler:    NewPlansHandler(deps, maxBodyBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/schedule", MetricsMiddleware(s.scheduleHandler.HandleSchedule, "schedule"))
	mux.HandleFunc("/suggest", MetricsMiddleware(s.scheduleHandler.HandleSuggest, "suggest"))

	mux.HandleFunc("POST /plans", MetricsMiddleware(s.plansHandler.HandleCreate, "plans"))
	mux.HandleFunc("GET /plans", MetricsMiddleware(s.plansHandler.HandleList, "plans"))
	mux.HandleFunc("GET /plans/{id}", MetricsMiddleware(s.plansHandler.HandleGet, "plan"))
	mux.HandleFunc("DELETE /plans/{id}", MetricsMiddleware(s.plansHandler.HandleDelete, "plan"))
	mux.HandleFunc("PUT /plans/{id}/groups/{name}", MetricsMiddleware(s.plansHandler.HandleUpdateGroup, "plan_group"))
	mux.HandleFunc("PUT /plans/{id}/settings", MetricsMiddleware(s.plansHandler.HandleUpdateSettings, "plan_settings"))
	mux.HandleFunc("POST /plans/{id}/apply", MetricsMiddleware(s.plansHandler.HandleApply, "plan_apply"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status code and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrEmptyUpdate),
		errors.Is(err, schedule.ErrNoGroups),
		errors.Is(err, schedule.ErrInvalidGroup),
		errors.Is(err, schedule.ErrDuplicateGroup),
		errors.Is(err, schedule.ErrInvalidTimeUnit),
		errors.Is(err, schedule.ErrInvalidBudget),
		errors.Is(err, allocation.ErrInvalidShape):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrGroupNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrBudgetExhausted):
		return http.StatusConflict, "budget_exhausted"
	case errors.Is(err, model.ErrAllocationMismatch):
		return http.StatusConflict, "conflict"
	case errors.Is(err, allocation.ErrSearchSpaceTooLarge):
		return http.StatusUnprocessableEntity, "search_space_too_large"
	case errors.Is(err, service.ErrTooManyGroups):
		return http.StatusUnprocessableEntity, "too_many_groups"
	case errors.Is(err, repository.ErrTooManyPlans):
		return http.StatusTooManyRequests, "too_many_plans"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads one JSON document from the request body, refusing
// unknown fields, trailing data and bodies over limit bytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind(op, ErrTooLarge, err)
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return WrapKind(op, ErrBadRequest, fmt.Errorf("unexpected data after JSON body"))
	}
	return nil
}
