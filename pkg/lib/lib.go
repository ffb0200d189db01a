package lib

import (
	"context"
	"fmt"
	"io"

	"github.com/slok/invk/internal/app/doctor"
	"github.com/slok/invk/internal/app/history"
	apprun "github.com/slok/invk/internal/app/run"
	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/runner"
	"github.com/slok/invk/internal/storage"
	"github.com/slok/invk/internal/storage/sqlite"
)

// Config configures the SDK client.
//
// All fields are optional, an empty Config{} runs commands with the platform
// shell, echoes to the process stdout/stderr and keeps no history.
type Config struct {
	// Shell interprets the commands.
	// Default: /bin/sh (cmd.exe on windows).
	Shell string

	// Env holds extra environment variables set on every command, on top of
	// the current process environment.
	Env map[string]string

	// Dir is the working directory of the commands.
	// Default: the current working directory.
	Dir string

	// Stdout and Stderr receive the live echo of the command output.
	// Default: os.Stdout and os.Stderr. Use io.Discard to silence them.
	Stdout io.Writer
	Stderr io.Writer

	// Encoding is the default output encoding.
	// Default: the platform encoding from the locale (LC_ALL, LC_CTYPE, LANG),
	// utf-8 when the locale doesn't set one.
	Encoding string

	// HistoryDBPath is the SQLite database where runs are recorded.
	// Default: empty, runs are not recorded.
	HistoryDBPath string

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point to run commands programmatically.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	runner   *runner.Runner
	repo     storage.Repository
	history  *sqlite.Repository
	settings model.Settings
	logger   log.Logger
	closeFn  func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to release the history
// database connection, if any. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r, err := runner.New(runner.Config{
		Shell:  cfg.Shell,
		Env:    cfg.Env,
		Dir:    cfg.Dir,
		Stdout: cfg.Stdout,
		Stderr: cfg.Stderr,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create runner: %w", err))
	}

	c := &Client{
		runner: r,
		settings: model.Settings{
			Run: model.RunSettings{
				Shell:    cfg.Shell,
				Encoding: cfg.Encoding,
				Dir:      cfg.Dir,
				Env:      cfg.Env,
			},
		},
		logger: cfg.Logger,
	}

	if cfg.HistoryDBPath != "" {
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.HistoryDBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		c.repo = repo
		c.history = repo
		c.closeFn = repo.Close
		c.settings.History = model.HistorySettings{Enabled: true, DBPath: cfg.HistoryDBPath}
	}

	return c, nil
}

// Close releases resources held by the client, including the history database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// Run runs a command through the shell and returns its result once the
// command has exited and all its output has been captured.
//
// A nonzero exit returns both the [Result] and an [*ExitError] (matching
// [ErrNonZeroExit]) unless opts.Warn is set. Returns [ErrSpawn] if the command
// could not be started and [ErrNotValid] for an empty command or an unknown
// encoding.
func (c *Client) Run(ctx context.Context, command string, opts *RunOptions) (*Result, error) {
	svc, err := apprun.NewService(apprun.ServiceConfig{
		Runner:     c.runner,
		Repository: c.repo,
		Defaults:   c.settings.Run,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, toInternalRunRequest(command, opts))
	if resp == nil {
		return nil, mapError(err)
	}

	return fromInternalResult(resp.Result), mapError(err)
}

// History lists the recorded runs, most recent first. A limit <= 0 lists all of them.
//
// Returns [ErrNotValid] if the client was created without a history database.
func (c *Client) History(ctx context.Context, limit int) ([]RunRecord, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("history is not enabled: %w", ErrNotValid)
	}

	svc, err := history.NewService(history.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	if limit <= 0 {
		limit = -1
	}
	runs, err := svc.List(ctx, history.ListRequest{Limit: limit})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalRunRecords(runs), nil
}

// Doctor runs the preflight checks of the running environment: shell,
// pseudo-terminal support, encodings and history database.
func (c *Client) Doctor(ctx context.Context) ([]CheckResult, error) {
	cfg := doctor.ServiceConfig{
		Settings: c.settings,
		Logger:   c.logger,
	}
	if c.history != nil {
		cfg.History = c.history
	}

	svc, err := doctor.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	return fromInternalCheckResults(svc.Run(ctx)), nil
}

func toInternalRunRequest(command string, opts *RunOptions) apprun.Request {
	req := apprun.Request{Command: command}
	if opts == nil {
		return req
	}

	hide := model.Hide(opts.Hide)
	if hide == "" {
		hide = model.HideNone
	}
	req.Hide = &hide
	req.Warn = &opts.Warn
	req.Pty = &opts.Pty
	req.Encoding = opts.Encoding

	return req
}
