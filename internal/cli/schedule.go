package cli

import (
	"github.com/okian/pistes/internal/domain/schedule"
)

type cmdSchedule struct {
	InputOptions
	app *App
}

// Execute prints the schedule for the groups as assigned.
func (cmd *cmdSchedule) Execute([]string) error {
	cfg, err := loadConfig(cmd.app.ctx)
	if err != nil {
		return err
	}
	in, err := cmd.Resolve(cfg)
	if err != nil {
		return err
	}
	svc, err := cmd.app.newService(cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Stop()

	results, err := svc.Schedule(cmd.app.ctx, in.Groups, in.TimeUnit, in.Budget)
	if err != nil {
		return err
	}
	r := newReport(in.Groups, results, in.Budget, schedule.Deviation(results))
	if cmd.JSON {
		return writeJSON(cmd.app.stdout, r)
	}
	return r.writeTable(cmd.app.stdout)
}
