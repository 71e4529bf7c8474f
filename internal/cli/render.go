package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/okian/pistes/internal/domain/model"
	"github.com/olekukonko/tablewriter"
)

const infinity = "∞"

// row is one group in a report.
type row struct {
	Name         string   `json:"name"`
	Participants int      `json:"participants"`
	Pistes       int      `json:"pistes"`
	Rounds       *int     `json:"rounds"`
	TimeRequired *float64 `json:"time_required"`
	Ratio        float64  `json:"utilization_ratio"`
	Starved      bool     `json:"starved"`
}

// report is what schedule and suggest print.
type report struct {
	Groups    []row    `json:"groups"`
	Budget    int      `json:"budget"`
	Allocated int      `json:"allocated"`
	Score     *float64 `json:"score"`
	Evaluated uint64   `json:"evaluated,omitempty"`
	Total     uint64   `json:"candidates,omitempty"`
}

func newReport(groups []model.Group, results []model.ScheduleResult, budget int, score float64) report {
	r := report{
		Groups:    make([]row, len(groups)),
		Budget:    budget,
		Allocated: model.TotalResources(groups),
		Score:     finite(score),
	}
	for i, g := range groups {
		res := results[i]
		rw := row{
			Name:         g.Name,
			Participants: g.Participants,
			Pistes:       g.Resources,
			Ratio:        res.UtilizationRatio,
			Starved:      res.Starved,
		}
		if !res.Starved {
			rounds := res.Rounds
			rw.Rounds = &rounds
			rw.TimeRequired = finite(res.TimeRequired)
		}
		r.Groups[i] = rw
	}
	return r
}

func finite(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r report) writeTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Group", "Fencers", "Pistes", "Rounds", "Time", "Ratio")
	for _, g := range r.Groups {
		rounds, minutes := infinity, infinity
		if g.Rounds != nil {
			rounds = strconv.Itoa(*g.Rounds)
		}
		if g.TimeRequired != nil {
			minutes = humanize.FtoaWithDigits(*g.TimeRequired, 2) + " min"
		}
		if err := table.Append([]string{
			g.Name,
			strconv.Itoa(g.Participants),
			strconv.Itoa(g.Pistes),
			rounds,
			minutes,
			strconv.FormatFloat(g.Ratio, 'f', 2, 64),
		}); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	score := infinity
	if r.Score != nil {
		score = strconv.FormatFloat(*r.Score, 'f', 4, 64)
	}
	_, err := fmt.Fprintf(w, "Allocated %d of %d pistes, deviation %s\n", r.Allocated, r.Budget, score)
	if err != nil {
		return err
	}
	if r.Total > 0 {
		_, err = fmt.Fprintf(w, "Scored %s of %s candidate splits\n", comma(r.Evaluated), comma(r.Total))
	}
	return err
}

// comma formats n with thousands separators.
func comma(n uint64) string {
	if n > math.MaxInt64 {
		return strconv.FormatUint(n, 10)
	}
	return humanize.Comma(int64(n))
}
