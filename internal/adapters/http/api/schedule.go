package api

import (
	"errors"
	"net/http"

	"github.com/okian/pistes/internal/domain/allocation"
	"github.com/okian/pistes/internal/domain/schedule"
)

// ScheduleHandler serves the stateless schedule and suggestion calls.
type ScheduleHandler struct {
	deps    Dependencies
	maxBody int64
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(deps Dependencies, maxBody int64) *ScheduleHandler {
	return &ScheduleHandler{deps: deps, maxBody: maxBody}
}

// HandleSchedule handles POST /schedule requests.
func (h *ScheduleHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.schedule"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req computeRequest
	if err := decodeJSON(w, r, h.maxBody, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	results, err := h.deps.Schedule(r.Context(), req.groups(), req.TimeUnit, req.Budget)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{
		Results:   toResultDTOs(results),
		Deviation: finite(schedule.Deviation(results)),
	})
}

// HandleSuggest handles POST /suggest requests. When the exhaustive search
// is refused as too large the body still carries the proportional estimate.
func (h *ScheduleHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggest"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req computeRequest
	if err := decodeJSON(w, r, h.maxBody, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	groups := req.groups()
	sug, err := h.deps.Suggest(r.Context(), groups, req.TimeUnit, req.Budget)
	if err != nil {
		if !errors.Is(err, allocation.ErrSearchSpaceTooLarge) {
			writeFailure(w, Wrap(op, err))
			return
		}
		if estimate, estErr := h.deps.Estimate(r.Context(), groups, req.Budget); estErr == nil {
			writeJSON(w, http.StatusUnprocessableEntity, struct {
				errorResponse
				Estimate []int `json:"estimate"`
			}{
				errorResponse: errorResponse{Code: "search_space_too_large", Message: Wrap(op, err).Error()},
				Estimate:      estimate,
			})
			return
		}
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toSuggestResponse(groups, sug))
}
