package cli

import (
	"errors"
	"fmt"

	"github.com/okian/pistes/internal/domain/allocation"
	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/pkg/logger"
)

type cmdSuggest struct {
	InputOptions
	MaxCompositions *uint64 `long:"max-compositions" description:"Refuse searches with more candidates; 0 disables the cap"`
	Estimate        bool    `long:"estimate" description:"Fall back to the proportional estimate when the search is refused"`
	app             *App
}

// Execute searches for the best split and prints the groups under it.
func (cmd *cmdSuggest) Execute([]string) error {
	ctx := cmd.app.ctx
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	in, err := cmd.Resolve(cfg)
	if err != nil {
		return err
	}
	svc, err := cmd.app.newService(cfg, cmd.MaxCompositions)
	if err != nil {
		return err
	}
	defer svc.Stop()

	total, err := svc.SearchSpace(len(in.Groups), in.Budget)
	if err != nil && !errors.Is(err, allocation.ErrSearchSpaceTooLarge) {
		return err
	}

	var (
		groups  []model.Group
		results []model.ScheduleResult
		score   float64
		scored  uint64
	)
	sug, err := svc.Suggest(ctx, in.Groups, in.TimeUnit, in.Budget)
	switch {
	case err == nil:
		if groups, err = model.Apply(in.Groups, sug.Allocation); err != nil {
			return err
		}
		results, score, scored = sug.Results, sug.Score, sug.Evaluated
	case errors.Is(err, allocation.ErrSearchSpaceTooLarge) && cmd.Estimate:
		logger.Get().Warn(ctx, "search refused, printing proportional estimate", logger.Error(err))
		alloc, perr := svc.Estimate(ctx, in.Groups, in.Budget)
		if perr != nil {
			return perr
		}
		if groups, err = model.Apply(in.Groups, alloc); err != nil {
			return err
		}
		if results, err = svc.Schedule(ctx, groups, in.TimeUnit, in.Budget); err != nil {
			return err
		}
		score, err = allocation.Score(in.Groups, alloc, in.TimeUnit, in.Budget)
		if err != nil {
			return err
		}
	default:
		return err
	}

	r := newReport(groups, results, in.Budget, score)
	r.Evaluated, r.Total = scored, total
	if cmd.JSON {
		return writeJSON(cmd.app.stdout, r)
	}
	return r.writeTable(cmd.app.stdout)
}

type cmdCount struct {
	Groups int  `short:"n" long:"groups" default:"3" description:"Number of groups"`
	Budget int  `short:"b" long:"budget" default:"6" description:"Pistes available"`
	JSON   bool `long:"json" description:"Print JSON"`
	app    *App
}

// Execute prints the number of compositions of the budget.
func (cmd *cmdCount) Execute([]string) error {
	n, err := allocation.Count(cmd.Groups, cmd.Budget)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(cmd.app.stdout, map[string]any{
			"groups": cmd.Groups, "budget": cmd.Budget, "candidates": n,
		})
	}
	_, err = fmt.Fprintf(cmd.app.stdout, "%s candidate splits of %d pistes across %d groups\n",
		comma(n), cmd.Budget, cmd.Groups)
	return err
}
