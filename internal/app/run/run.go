package run

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/storage"
)

// Runner knows how to run a command spec.
type Runner interface {
	Run(ctx context.Context, spec model.CommandSpec) (*model.Result, error)
}

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Runner Runner
	// Repository stores the run history, optional.
	Repository storage.Repository
	// Defaults are the run settings used when the request does not set them.
	Defaults model.RunSettings
	Logger   log.Logger
	// TimeNow is used to timestamp runs, defaults to time.Now.
	TimeNow func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if c.Defaults.Hide == "" {
		c.Defaults.Hide = model.HideNone
	}
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service runs commands applying the configured defaults and records them
// on the history.
type Service struct {
	runner   Runner
	repo     storage.Repository
	defaults model.RunSettings
	timeNow  func() time.Time
	logger   log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		runner:   cfg.Runner,
		repo:     cfg.Repository,
		defaults: cfg.Defaults,
		timeNow:  cfg.TimeNow,
		logger:   cfg.Logger,
	}, nil
}

// Request contains the parameters for running a command.
// Nil options fall back to the service defaults.
type Request struct {
	Command  string
	Hide     *model.Hide
	Warn     *bool
	Pty      *bool
	Encoding string
}

// Response is the outcome of a run.
type Response struct {
	// RunID is the history ID, empty when the run was not recorded.
	RunID  string
	Result *model.Result
}

// Run runs the requested command. Errors coming from the runner are returned
// as they are, a nonzero exit returns both the response and the exit error.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	spec, err := s.spec(req)
	if err != nil {
		return nil, err
	}

	startedAt := s.timeNow().UTC()
	res, runErr := s.runner.Run(ctx, spec)
	finishedAt := s.timeNow().UTC()
	if res == nil {
		if runErr == nil {
			runErr = fmt.Errorf("runner returned no result")
		}
		return nil, runErr
	}

	resp := &Response{Result: res}
	if s.repo == nil {
		return resp, runErr
	}

	record := model.RunRecord{
		ID:          ulid.MustNew(ulid.Timestamp(startedAt), rand.Reader).String(),
		Command:     res.Command,
		Exited:      res.Exited,
		Hide:        spec.Hide(),
		Warn:        spec.Warn(),
		Pty:         spec.Pty(),
		Encoding:    spec.Encoding(),
		StdoutBytes: len(res.Stdout),
		StderrBytes: len(res.Stderr),
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}

	// History is best effort, it never hides the run outcome.
	if err := s.repo.CreateRun(context.WithoutCancel(ctx), record); err != nil {
		s.logger.Warningf("could not store run on history: %s", err)
		return resp, runErr
	}
	resp.RunID = record.ID
	s.logger.WithValues(log.Kv{"run-id": record.ID}).Debugf("run stored on history")

	return resp, runErr
}

func (s *Service) spec(req Request) (model.CommandSpec, error) {
	hide := s.defaults.Hide
	if req.Hide != nil {
		hide = *req.Hide
	}
	warn := s.defaults.Warn
	if req.Warn != nil {
		warn = *req.Warn
	}
	pty := s.defaults.Pty
	if req.Pty != nil {
		pty = *req.Pty
	}
	encoding := s.defaults.Encoding
	if req.Encoding != "" {
		encoding = req.Encoding
	}

	spec, err := model.NewCommandSpec(req.Command,
		model.WithHide(hide),
		model.WithWarn(warn),
		model.WithPty(pty),
		model.WithEncoding(encoding),
	)
	if err != nil {
		return model.CommandSpec{}, fmt.Errorf("invalid run request: %w", err)
	}

	return spec, nil
}

// ExitCode returns the process exit code that mirrors a run outcome.
// Failures with no command result (spawn, invalid request...) map to 1.
func ExitCode(resp *Response, err error) int {
	if resp != nil && resp.Result != nil {
		return resp.Result.Exited
	}

	var exitErr *model.ExitError
	if errors.As(err, &exitErr) && exitErr.Result != nil {
		return exitErr.Result.Exited
	}

	if err != nil {
		return 1
	}
	return 0
}
