package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/invk/internal/app/run"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/runner"
	utilsenv "github.com/slok/invk/internal/utils/env"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	command   []string
	hide      string
	warn      bool
	warnSet   bool
	pty       bool
	ptySet    bool
	encoding  string
	shell     string
	envSpecs  []string
	dir       string
	noHistory bool
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run a command through the shell, echoing and capturing its output.")
	c.Cmd.Arg("command", "Command to run (use -- before the command).").Required().StringsVar(&c.command)
	c.Cmd.Flag("hide", "Streams kept off the terminal (none, stdout, stderr, both). They are still captured.").StringVar(&c.hide)
	c.Cmd.Flag("warn", "Don't treat a nonzero exit as a failure.").IsSetByUser(&c.warnSet).BoolVar(&c.warn)
	c.Cmd.Flag("pty", "Run the command attached to a pseudo-terminal.").Short('t').IsSetByUser(&c.ptySet).BoolVar(&c.pty)
	c.Cmd.Flag("encoding", "Encoding used to decode the command output.").StringVar(&c.encoding)
	c.Cmd.Flag("shell", "Shell used to interpret the command.").StringVar(&c.shell)
	c.Cmd.Flag("env", "Environment variables (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("dir", "Working directory of the command.").Short('w').StringVar(&c.dir)
	c.Cmd.Flag("no-history", "Don't record the run on the history.").BoolVar(&c.noHistory)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger
	settings := c.rootCmd.Settings.Run

	cliEnv, err := utilsenv.ParseSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}

	req := run.Request{
		Command:  strings.Join(c.command, " "),
		Encoding: c.encoding,
	}
	if c.hide != "" {
		hide, err := model.ParseHide(c.hide)
		if err != nil {
			return fmt.Errorf("invalid --hide value: %w", err)
		}
		req.Hide = &hide
	}
	if c.warnSet {
		req.Warn = &c.warn
	}
	if c.ptySet {
		req.Pty = &c.pty
	}

	shell := settings.Shell
	if c.shell != "" {
		shell = c.shell
	}
	dir := settings.Dir
	if c.dir != "" {
		dir = c.dir
	}

	r, err := runner.New(runner.Config{
		Shell:  shell,
		Env:    utilsenv.MergeMaps(settings.Env, cliEnv),
		Dir:    dir,
		Stdout: c.rootCmd.Stdout,
		Stderr: c.rootCmd.Stderr,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create runner: %w", err)
	}

	svcCfg := run.ServiceConfig{
		Runner:   r,
		Defaults: settings,
		Logger:   logger,
	}
	if !c.noHistory {
		repo, err := c.rootCmd.openHistory(ctx)
		if err != nil {
			// History is best effort, never block a run on it.
			logger.Warningf("Run will not be recorded: %s", err)
		} else if repo != nil {
			defer repo.Close()
			svcCfg.Repository = repo
		}
	}

	svc, err := run.NewService(svcCfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, req)
	if err != nil && !errors.Is(err, model.ErrNonZeroExit) {
		return fmt.Errorf("could not run command: %w", err)
	}

	if code := run.ExitCode(resp, err); code != 0 {
		return ExitCodeError{Code: code}
	}

	return nil
}
