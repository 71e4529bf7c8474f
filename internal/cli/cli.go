// Package cli implements pistectl, a command line front end to the piste
// allocator.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jessevdk/go-flags"
	service "github.com/okian/pistes/internal/app"
	"github.com/okian/pistes/internal/config"
	"github.com/okian/pistes/pkg/logger"
)

// GlobalOptions apply to every subcommand.
type GlobalOptions struct {
	LogLevel  string `long:"log-level" default:"warn" description:"Log level: debug, info, warn, error"`
	LogFormat string `long:"log-format" default:"console" description:"Log format: text, json, console"`
}

// App holds the parser state and output streams for one invocation.
type App struct {
	Global GlobalOptions

	ctx    context.Context
	stdout io.Writer
	stderr io.Writer
}

// New returns an App writing results to stdout and logs to stderr.
func New(ctx context.Context, stdout, stderr io.Writer) *App {
	return &App{ctx: ctx, stdout: stdout, stderr: stderr}
}

type command struct {
	name, short, long string
	data              interface{}
}

// Parser builds the go-flags parser with every subcommand attached.
func (a *App) Parser() (*flags.Parser, error) {
	parser := flags.NewParser(&a.Global, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "pistectl"
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		if err := a.initLogging(); err != nil {
			return err
		}
		return cmd.Execute(args)
	}

	for _, c := range []command{
		{"schedule", "Schedule groups on their current pistes",
			"Compute rounds, time and utilization for every group as assigned.", &cmdSchedule{app: a}},
		{"suggest", "Suggest the most balanced piste split",
			"Score every split of the budget across the groups and print the best one.", &cmdSuggest{app: a}},
		{"count", "Count the candidate splits",
			"Print how many allocations a suggestion would have to score.", &cmdCount{app: a}},
		{"load", "Drive a running server with suggestion requests",
			"Send randomized POST /suggest requests to a server from concurrent workers and report the outcome.", &cmdLoad{app: a}},
	} {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return nil, fmt.Errorf("add %s command: %w", c.name, err)
		}
	}
	return parser, nil
}

// Run parses args and executes the selected subcommand.
func (a *App) Run(args []string) error {
	parser, err := a.Parser()
	if err != nil {
		return err
	}
	_, err = parser.ParseArgs(args)
	return err
}

func (a *App) initLogging() error {
	if err := logger.Init(logger.WithFormat(a.Global.LogFormat), logger.WithWriter(a.stderr)); err != nil {
		return err
	}
	return logger.SetLevelString(a.Global.LogLevel)
}

// newService starts a service configured from the process configuration.
func (a *App) newService(cfg *config.Config, maxCompositions *uint64) (*service.Service, error) {
	limit := cfg.MaxCompositions
	if maxCompositions != nil {
		limit = *maxCompositions
	}
	svc := service.New(
		service.WithLogger(logger.Named("pistectl")),
		service.WithMaxGroups(cfg.MaxGroups),
		service.WithMaxCompositions(limit),
		service.WithMinBudget(0),
		service.WithCacheSize(0),
	)
	if err := svc.Start(a.ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
