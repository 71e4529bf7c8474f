package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/pistes/internal/config"
	"github.com/okian/pistes/internal/domain/model"
)

// InputOptions select the groups, time unit and budget a command works on.
// Precedence, low to high: process configuration, --plan file, flags.
type InputOptions struct {
	Groups   []string `short:"g" long:"group" value-name:"NAME:FENCERS[:PISTES]" description:"Group to schedule; repeat for each group"`
	Plan     string   `short:"f" long:"plan" description:"YAML file with groups, time_unit and budget"`
	TimeUnit float64  `short:"t" long:"time-unit" description:"Minutes per bout"`
	Budget   *int     `short:"b" long:"budget" description:"Pistes available"`
	JSON     bool     `long:"json" description:"Print JSON instead of a table"`
}

// planFile mirrors the keys accepted in a --plan file.
type planFile struct {
	Groups   []config.GroupConfig `koanf:"groups"`
	TimeUnit float64              `koanf:"time_unit"`
	Budget   *int                 `koanf:"budget"`
}

// Input is the resolved problem a command runs on.
type Input struct {
	Groups   []model.Group
	TimeUnit float64
	Budget   int
}

// Resolve layers the plan file and flags on top of cfg.
func (o *InputOptions) Resolve(cfg *config.Config) (Input, error) {
	in := Input{
		Groups:   cfg.DefaultGroups(),
		TimeUnit: cfg.TimeUnit,
		Budget:   cfg.Budget,
	}

	if o.Plan != "" {
		pf, err := loadPlanFile(o.Plan)
		if err != nil {
			return Input{}, err
		}
		if len(pf.Groups) > 0 {
			in.Groups = (&config.Config{Groups: pf.Groups}).DefaultGroups()
		}
		if pf.TimeUnit != 0 {
			in.TimeUnit = pf.TimeUnit
		}
		if pf.Budget != nil {
			in.Budget = *pf.Budget
		}
	}

	if len(o.Groups) > 0 {
		groups := make([]model.Group, len(o.Groups))
		for i, raw := range o.Groups {
			g, err := ParseGroup(raw)
			if err != nil {
				return Input{}, err
			}
			groups[i] = g
		}
		in.Groups = groups
	}
	if o.TimeUnit != 0 {
		in.TimeUnit = o.TimeUnit
	}
	if o.Budget != nil {
		in.Budget = *o.Budget
	}
	return in, nil
}

func loadPlanFile(path string) (planFile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return planFile{}, fmt.Errorf("%w: %s: %w", ErrLoadPlan, path, err)
	}
	var pf planFile
	if err := k.UnmarshalWithConf("", &pf, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return planFile{}, fmt.Errorf("%w: %s: %w", ErrLoadPlan, path, err)
	}
	return pf, nil
}

// ParseGroup reads NAME:FENCERS[:PISTES]. Pistes default to zero.
func ParseGroup(raw string) (model.Group, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
		return model.Group{}, fmt.Errorf("%w: %q, want NAME:FENCERS[:PISTES]", ErrInvalidGroupFlag, raw)
	}
	g := model.Group{Name: strings.TrimSpace(parts[0])}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.Group{}, fmt.Errorf("%w: %q fencers: %w", ErrInvalidGroupFlag, raw, err)
	}
	g.Participants = n
	if len(parts) == 3 {
		p, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return model.Group{}, fmt.Errorf("%w: %q pistes: %w", ErrInvalidGroupFlag, raw, err)
		}
		g.Resources = p
	}
	return g, nil
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	return config.Load(ctx)
}
