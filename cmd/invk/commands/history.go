package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/invk/internal/app/history"
	"github.com/slok/invk/internal/printer"
)

// NewHistoryCommand returns the history parent command.
func NewHistoryCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("history", "Manage the run history.")
}

// newHistoryService opens the history and returns its service with a closer.
func newHistoryService(ctx context.Context, rootCmd *RootCommand) (*history.Service, func() error, error) {
	repo, err := rootCmd.openHistory(ctx)
	if err != nil {
		return nil, nil, err
	}
	if repo == nil {
		return nil, nil, fmt.Errorf("history is disabled")
	}

	svc, err := history.NewService(history.ServiceConfig{
		Repository: repo,
		Logger:     rootCmd.Logger,
	})
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("could not create service: %w", err)
	}

	return svc, repo.Close, nil
}

type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	limit  int
	failed bool
	format string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("list", "List the recorded runs, most recent first.").Default()
	c.Cmd.Flag("limit", "Max number of runs (-1 for all).").Short('n').Default("20").IntVar(&c.limit)
	c.Cmd.Flag("failed", "Only show the runs that exited with a nonzero code.").BoolVar(&c.failed)
	c.Cmd.Flag("format", "Output format (table, json, yaml).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON, printer.FormatYAML)

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newHistoryService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	runs, err := svc.List(ctx, history.ListRequest{Limit: c.limit, FailedOnly: c.failed})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	p, err := printer.New(c.format, c.rootCmd.Stdout)
	if err != nil {
		return err
	}
	if err := p.PrintRuns(runs); err != nil {
		return fmt.Errorf("could not print runs: %w", err)
	}

	return nil
}

type HistoryShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id     string
	format string
}

// NewHistoryShowCommand returns the history show command.
func NewHistoryShowCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryShowCommand {
	c := &HistoryShowCommand{rootCmd: rootCmd}

	c.Cmd = historyCmd.Command("show", "Show a recorded run.")
	c.Cmd.Arg("id", "Run ID.").Required().StringVar(&c.id)
	c.Cmd.Flag("format", "Output format (table, json, yaml).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON, printer.FormatYAML)

	return c
}

func (c HistoryShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryShowCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newHistoryService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	run, err := svc.Get(ctx, c.id)
	if err != nil {
		return err
	}

	p, err := printer.New(c.format, c.rootCmd.Stdout)
	if err != nil {
		return err
	}
	if err := p.PrintRun(*run); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	return nil
}

type HistoryClearCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewHistoryClearCommand returns the history clear command.
func NewHistoryClearCommand(rootCmd *RootCommand, historyCmd *kingpin.CmdClause) *HistoryClearCommand {
	c := &HistoryClearCommand{rootCmd: rootCmd}
	c.Cmd = historyCmd.Command("clear", "Remove all the recorded runs.")

	return c
}

func (c HistoryClearCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryClearCommand) Run(ctx context.Context) error {
	svc, closeRepo, err := newHistoryService(ctx, c.rootCmd)
	if err != nil {
		return err
	}
	defer closeRepo()

	return svc.Clear(ctx)
}
