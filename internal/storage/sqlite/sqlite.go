package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRun stores a finished run.
func (r *Repository) CreateRun(ctx context.Context, run model.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO runs (
			id, command, exited,
			hide, warn, pty, encoding,
			stdout_bytes, stderr_bytes,
			started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Command,
		run.Exited,
		string(run.Hide),
		run.Warn,
		run.Pty,
		run.Encoding,
		run.StdoutBytes,
		run.StderrBytes,
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.") {
			return fmt.Errorf("run already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	r.logger.Debugf("Created run in repository: %s", run.ID)
	return nil
}

const selectRuns = `
	SELECT
		id, command, exited,
		hide, warn, pty, encoding,
		stdout_bytes, stderr_bytes,
		started_at, finished_at
	FROM runs
`

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get run: %w", err)
	}

	return &run, nil
}

// ListRuns lists the runs, most recent first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	query := selectRuns + " ORDER BY started_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate runs: %w", err)
	}

	return runs, nil
}

// DeleteRuns removes all the runs.
func (r *Repository) DeleteRuns(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM runs"); err != nil {
		return fmt.Errorf("could not delete runs: %w", err)
	}

	r.logger.Debugf("Deleted all runs from repository")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.RunRecord, error) {
	var (
		run                   model.RunRecord
		hide                  string
		startedAt, finishedAt int64
	)

	err := s.Scan(
		&run.ID,
		&run.Command,
		&run.Exited,
		&hide,
		&run.Warn,
		&run.Pty,
		&run.Encoding,
		&run.StdoutBytes,
		&run.StderrBytes,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return model.RunRecord{}, err
	}

	run.Hide = model.Hide(hide)
	run.StartedAt = timeFromUnixMilli(startedAt)
	run.FinishedAt = timeFromUnixMilli(finishedAt)

	return run, nil
}

func timeFromUnixMilli(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// SchemaVersion returns the applied migration version of the history database.
func (r *Repository) SchemaVersion(ctx context.Context) (uint, error) {
	migrator, err := migrations.NewMigrator(r.db, r.logger)
	if err != nil {
		return 0, err
	}

	version, dirty, err := migrator.Version(ctx)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty: %w", version, model.ErrNotValid)
	}
	return version, nil
}
