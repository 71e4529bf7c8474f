package api

import (
	"math"
	"time"

	repository "github.com/okian/pistes/internal/adapters/repository"
	service "github.com/okian/pistes/internal/app"
	"github.com/okian/pistes/internal/domain/allocation"
	"github.com/okian/pistes/internal/domain/model"
)

// groupDTO mirrors the OpenAPI Group schema.
type groupDTO struct {
	Name         string `json:"name"`
	Participants int    `json:"participants"`
	Pistes       int    `json:"pistes"`
}

// computeRequest is the body of POST /schedule, POST /suggest and POST /plans.
type computeRequest struct {
	Groups   []groupDTO `json:"groups"`
	TimeUnit float64    `json:"time_unit"`
	Budget   int        `json:"budget"`
}

func (c computeRequest) groups() []model.Group {
	out := make([]model.Group, len(c.Groups))
	for i, g := range c.Groups {
		out[i] = model.Group{Name: g.Name, Participants: g.Participants, Resources: g.Pistes}
	}
	return out
}

type groupUpdateRequest struct {
	Participants *int `json:"participants"`
	Pistes       *int `json:"pistes"`
}

type settingsRequest struct {
	TimeUnit *float64 `json:"time_unit"`
	Budget   *int     `json:"budget"`
}

// resultDTO carries one group's schedule. Rounds and time are null when the
// group has no piste and can never finish.
type resultDTO struct {
	Name             string   `json:"name"`
	Rounds           *int     `json:"rounds"`
	TimeRequired     *float64 `json:"time_required"`
	UtilizationRatio float64  `json:"utilization_ratio"`
	Starved          bool     `json:"starved"`
}

type scheduleResponse struct {
	Results   []resultDTO `json:"results"`
	Deviation *float64    `json:"deviation"`
}

type suggestResponse struct {
	Allocation []int       `json:"allocation"`
	Groups     []groupDTO  `json:"groups"`
	Score      *float64    `json:"score"`
	Evaluated  uint64      `json:"evaluated"`
	Results    []resultDTO `json:"results"`
}

type statusDTO struct {
	Allocated int    `json:"allocated"`
	Remaining int    `json:"remaining"`
	State     string `json:"state"`
}

type planResponse struct {
	ID        string      `json:"id"`
	Groups    []groupDTO  `json:"groups"`
	TimeUnit  float64     `json:"time_unit"`
	Budget    int         `json:"budget"`
	Results   []resultDTO `json:"results"`
	Suggested []int       `json:"suggested"`
	Score     *float64    `json:"score"`
	Status    statusDTO   `json:"status"`
	Version   int64       `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type planListResponse struct {
	Plans []planResponse `json:"plans"`
}

// finite returns nil for values JSON cannot carry.
func finite(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func toGroupDTOs(groups []model.Group) []groupDTO {
	out := make([]groupDTO, len(groups))
	for i, g := range groups {
		out[i] = groupDTO{Name: g.Name, Participants: g.Participants, Pistes: g.Resources}
	}
	return out
}

func toResultDTOs(results []model.ScheduleResult) []resultDTO {
	out := make([]resultDTO, len(results))
	for i, r := range results {
		dto := resultDTO{
			Name:             r.Name,
			UtilizationRatio: r.UtilizationRatio,
			Starved:          r.Starved,
		}
		if !r.Starved {
			rounds := r.Rounds
			dto.Rounds = &rounds
			dto.TimeRequired = finite(r.TimeRequired)
		}
		out[i] = dto
	}
	return out
}

func toSuggestResponse(groups []model.Group, sug allocation.Suggestion) suggestResponse {
	suggested, err := model.Apply(groups, sug.Allocation)
	if err != nil {
		suggested = groups
	}
	return suggestResponse{
		Allocation: sug.Allocation,
		Groups:     toGroupDTOs(suggested),
		Score:      finite(sug.Score),
		Evaluated:  sug.Evaluated,
		Results:    toResultDTOs(sug.Results),
	}
}

func toPlanResponse(p repository.Plan) planResponse {
	st := service.Status(p)
	return planResponse{
		ID:        p.ID,
		Groups:    toGroupDTOs(p.Groups),
		TimeUnit:  p.TimeUnit,
		Budget:    p.Budget,
		Results:   toResultDTOs(p.Results),
		Suggested: p.Suggested,
		Score:     finite(p.Score),
		Status:    statusDTO{Allocated: st.Allocated, Remaining: st.Remaining, State: st.State},
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
