package api

import (
	"net/http"

	repository "github.com/okian/pistes/internal/adapters/repository"
	service "github.com/okian/pistes/internal/app"
)

// PlansHandler serves the editable plans under /plans.
type PlansHandler struct {
	deps    PlanDependencies
	maxBody int64
}

// NewPlansHandler creates a new plans handler.
func NewPlansHandler(deps PlanDependencies, maxBody int64) *PlansHandler {
	return &PlansHandler{deps: deps, maxBody: maxBody}
}

// HandleCreate handles POST /plans. An empty body field falls back to the
// configured default.
func (h *PlansHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_plan"
	var req computeRequest
	if err := decodeJSON(w, r, h.maxBody, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	p, err := h.deps.CreatePlan(r.Context(), service.PlanInput{
		Groups:   req.groups(),
		TimeUnit: req.TimeUnit,
		Budget:   req.Budget,
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/plans/"+p.ID)
	writeJSON(w, http.StatusCreated, toPlanResponse(p))
}

// HandleList handles GET /plans.
func (h *PlansHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	plans, err := h.deps.ListPlans(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.list_plans", err))
		return
	}
	resp := planListResponse{Plans: make([]planResponse, len(plans))}
	for i, p := range plans {
		resp.Plans[i] = toPlanResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /plans/{id}.
func (h *PlansHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.GetPlan(r.Context(), r.PathValue("id"))
	h.respond(w, "api.get_plan", p, err)
}

// HandleDelete handles DELETE /plans/{id}.
func (h *PlansHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeletePlan(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, Wrap("api.delete_plan", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateGroup handles PUT /plans/{id}/groups/{name}. Participants are
// applied before pistes so a single request can grow a group and give it
// more room; a refused request leaves the plan unchanged.
func (h *PlansHandler) HandleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_group"
	var req groupUpdateRequest
	if err := decodeJSON(w, r, h.maxBody, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if req.Participants == nil && req.Pistes == nil {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	p, err := h.deps.UpdateGroup(r.Context(), r.PathValue("id"), r.PathValue("name"), service.GroupUpdate{
		Participants: req.Participants,
		Pistes:       req.Pistes,
	})
	h.respond(w, op, p, err)
}

// HandleUpdateSettings handles PUT /plans/{id}/settings.
func (h *PlansHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_settings"
	var req settingsRequest
	if err := decodeJSON(w, r, h.maxBody, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	p, err := h.deps.UpdateSettings(r.Context(), r.PathValue("id"), service.Settings{
		TimeUnit: req.TimeUnit,
		Budget:   req.Budget,
	})
	h.respond(w, op, p, err)
}

// HandleApply handles POST /plans/{id}/apply.
func (h *PlansHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.ApplySuggested(r.Context(), r.PathValue("id"))
	h.respond(w, "api.apply_suggested", p, err)
}

func (h *PlansHandler) respond(w http.ResponseWriter, op string, p repository.Plan, err error) {
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(p))
}
