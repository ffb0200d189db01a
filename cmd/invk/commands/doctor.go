package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/invk/internal/app/doctor"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/printer"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Run preflight checks of the running environment.")
	c.Cmd.Flag("format", "Output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	cfg := doctor.ServiceConfig{
		Settings:    c.rootCmd.Settings,
		SettingsErr: c.rootCmd.SettingsErr,
		Logger:      c.rootCmd.Logger,
	}

	repo, err := c.rootCmd.openHistory(ctx)
	switch {
	case err != nil:
		cfg.HistoryErr = err
	case repo != nil:
		defer repo.Close()
		cfg.History = repo
	}

	svc, err := doctor.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	results := svc.Run(ctx)

	p, err := printer.New(c.format, c.rootCmd.Stdout)
	if err != nil {
		return err
	}
	if err := p.PrintChecks(results); err != nil {
		return fmt.Errorf("could not print checks: %w", err)
	}

	if sum := model.SummarizeChecks(results); sum.Failed() {
		return fmt.Errorf("doctor checks failed with %d error(s)", sum.Errors)
	}

	return nil
}
