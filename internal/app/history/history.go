package history

import (
	"context"
	"fmt"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/storage"
)

const defaultLimit = 20

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.History"})

	return nil
}

// Service lists and clears the run history.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// ListRequest represents the list request parameters.
type ListRequest struct {
	// Limit is the max number of runs returned, 0 uses the default and a negative value returns all.
	Limit int
	// FailedOnly only returns the runs that exited with a nonzero code.
	FailedOnly bool
}

// List lists the most recent runs first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]model.RunRecord, error) {
	limit := req.Limit
	switch {
	case limit == 0:
		limit = defaultLimit
	case limit < 0:
		limit = 0
	}

	// Filtering happens here, the repository limit would drop failed runs.
	repoLimit := limit
	if req.FailedOnly {
		repoLimit = 0
	}

	runs, err := s.repo.ListRuns(ctx, repoLimit)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	if req.FailedOnly {
		filtered := make([]model.RunRecord, 0, len(runs))
		for _, r := range runs {
			if r.Exited == 0 {
				continue
			}
			filtered = append(filtered, r)
			if limit > 0 && len(filtered) == limit {
				break
			}
		}
		runs = filtered
	}

	s.logger.Debugf("found %d runs", len(runs))
	return runs, nil
}

// Get returns a single run.
func (s *Service) Get(ctx context.Context, id string) (*model.RunRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get run %q: %w", id, err)
	}

	return run, nil
}

// Clear removes all the runs from the history.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.DeleteRuns(ctx); err != nil {
		return fmt.Errorf("could not clear runs: %w", err)
	}
	s.logger.Infof("History cleared")

	return nil
}
