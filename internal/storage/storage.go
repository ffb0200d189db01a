package storage

import (
	"context"

	"github.com/slok/invk/internal/model"
)

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository --structname MockRepository

// Repository is the interface for run history persistence.
type Repository interface {
	CreateRun(ctx context.Context, r model.RunRecord) error
	GetRun(ctx context.Context, id string) (*model.RunRecord, error)
	// ListRuns returns the most recent runs first. A limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	DeleteRuns(ctx context.Context) error
}
