package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	runs   map[string]model.RunRecord
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:   make(map[string]model.RunRecord),
		logger: cfg.Logger,
	}, nil
}

// CreateRun stores a finished run.
func (r *Repository) CreateRun(ctx context.Context, run model.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}
	if _, ok := r.runs[run.ID]; ok {
		return fmt.Errorf("run with id %s: %w", run.ID, model.ErrAlreadyExists)
	}

	r.runs[run.ID] = run
	r.logger.Debugf("Created run in repository: %s", run.ID)

	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	// Return a copy to avoid external modifications.
	runCopy := run
	return &runCopy, nil
}

// ListRuns lists the runs, most recent first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

// DeleteRuns removes all the runs.
func (r *Repository) DeleteRuns(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = make(map[string]model.RunRecord)
	return nil
}
