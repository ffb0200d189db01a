package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/invk/internal/printer"
)

type ConfigCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewConfigCommand returns the config command.
func NewConfigCommand(rootCmd *RootCommand, app *kingpin.Application) *ConfigCommand {
	c := &ConfigCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("config", "Print the effective settings after merging all the sources.")
	c.Cmd.Flag("format", "Output format (yaml, json, table).").Default(printer.FormatYAML).EnumVar(&c.format, printer.FormatYAML, printer.FormatJSON, printer.FormatTable)

	return c
}

func (c ConfigCommand) Name() string { return c.Cmd.FullCommand() }

func (c ConfigCommand) Run(ctx context.Context) error {
	p, err := printer.New(c.format, c.rootCmd.Stdout)
	if err != nil {
		return err
	}

	if err := p.PrintSettings(c.rootCmd.Settings); err != nil {
		return fmt.Errorf("could not print settings: %w", err)
	}

	return nil
}
