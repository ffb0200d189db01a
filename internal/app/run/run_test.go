package run_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/invk/internal/app/run"
	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/storage/memory"
	"github.com/slok/invk/internal/storage/storagemock"
)

type runnerFunc func(ctx context.Context, spec model.CommandSpec) (*model.Result, error)

func (f runnerFunc) Run(ctx context.Context, spec model.CommandSpec) (*model.Result, error) {
	return f(ctx, spec)
}

func ptr[T any](v T) *T { return &v }

// fakeRunner returns results like the real runner does, applying the exit policy.
func fakeRunner(exited int, stdout, stderr string, gotSpec *model.CommandSpec) run.Runner {
	return runnerFunc(func(_ context.Context, spec model.CommandSpec) (*model.Result, error) {
		if gotSpec != nil {
			*gotSpec = spec
		}
		res := &model.Result{Command: spec.Command(), Exited: exited, Stdout: stdout, Stderr: stderr, Pty: spec.Pty()}
		if exited != 0 && !spec.Warn() {
			return res, &model.ExitError{Result: res}
		}
		return res, nil
	})
}

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		cfg    run.ServiceConfig
		expErr bool
	}{
		"Valid configuration should create service successfully": {
			cfg: run.ServiceConfig{
				Runner:     fakeRunner(0, "", "", nil),
				Repository: &storagemock.MockRepository{},
				Logger:     log.Noop,
			},
		},

		"Missing repository should be valid (history disabled)": {
			cfg: run.ServiceConfig{
				Runner: fakeRunner(0, "", "", nil),
			},
		},

		"Missing runner should fail": {
			cfg: run.ServiceConfig{
				Repository: &storagemock.MockRepository{},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			svc, err := run.NewService(test.cfg)

			if test.expErr {
				assert.Error(err)
				assert.Nil(svc)
			} else {
				assert.NoError(err)
				assert.NotNil(svc)
			}
		})
	}
}

func TestServiceRunSpec(t *testing.T) {
	// Unset encodings default to the locale one.
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "en_US.UTF-8")

	tests := map[string]struct {
		defaults model.RunSettings
		req      run.Request
		expHide  model.Hide
		expWarn  bool
		expPty   bool
		expEnc   string
		expErr   error
	}{
		"Empty defaults and request should use the command spec defaults": {
			req:     run.Request{Command: "true"},
			expHide: model.HideNone,
			expEnc:  "utf-8",
		},

		"Defaults should be applied when the request does not set them": {
			defaults: model.RunSettings{Hide: model.HideStderr, Warn: true, Pty: true, Encoding: "latin1"},
			req:      run.Request{Command: "true"},
			expHide:  model.HideStderr,
			expWarn:  true,
			expPty:   true,
			expEnc:   "latin1",
		},

		"Request options should override the defaults": {
			defaults: model.RunSettings{Hide: model.HideStderr, Warn: true, Pty: true, Encoding: "latin1"},
			req: run.Request{
				Command:  "true",
				Hide:     ptr(model.HideBoth),
				Warn:     ptr(false),
				Pty:      ptr(false),
				Encoding: "utf-8",
			},
			expHide: model.HideBoth,
			expEnc:  "utf-8",
		},

		"An empty command should fail as not valid.": {
			req:    run.Request{Command: "  "},
			expErr: model.ErrNotValid,
		},

		"An unknown encoding should fail as not valid.": {
			req:    run.Request{Command: "true", Encoding: "not-an-encoding"},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var gotSpec model.CommandSpec
			svc, err := run.NewService(run.ServiceConfig{
				Runner:   fakeRunner(0, "", "", &gotSpec),
				Defaults: test.defaults,
			})
			require.NoError(err)

			_, err = svc.Run(context.TODO(), test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)

			assert.Equal(test.req.Command, gotSpec.Command())
			assert.Equal(test.expHide, gotSpec.Hide())
			assert.Equal(test.expWarn, gotSpec.Warn())
			assert.Equal(test.expPty, gotSpec.Pty())
			assert.Equal(test.expEnc, gotSpec.Encoding())
		})
	}
}

func TestServiceRunHistory(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		runner    run.Runner
		req       run.Request
		expExited int
		expErr    error
		expRecord model.RunRecord
	}{
		"A successful run should be stored.": {
			runner:    fakeRunner(0, "foo\n", "", nil),
			req:       run.Request{Command: "echo foo"},
			expExited: 0,
			expRecord: model.RunRecord{
				Command:     "echo foo",
				Exited:      0,
				Hide:        model.HideNone,
				Encoding:    "utf-8",
				StdoutBytes: 4,
				StartedAt:   t0,
				FinishedAt:  t0.Add(time.Second),
			},
		},

		"A failed run should be stored and return the exit error.": {
			runner:    fakeRunner(3, "", "boom\n", nil),
			req:       run.Request{Command: "exit 3"},
			expExited: 3,
			expErr:    model.ErrNonZeroExit,
			expRecord: model.RunRecord{
				Command:     "exit 3",
				Exited:      3,
				Hide:        model.HideNone,
				Encoding:    "utf-8",
				StderrBytes: 5,
				StartedAt:   t0,
				FinishedAt:  t0.Add(time.Second),
			},
		},

		"A failed run with warn should be stored without error.": {
			runner:    fakeRunner(1, "", "", nil),
			req:       run.Request{Command: "false", Warn: ptr(true)},
			expExited: 1,
			expRecord: model.RunRecord{
				Command:    "false",
				Exited:     1,
				Hide:       model.HideNone,
				Warn:       true,
				Encoding:   "utf-8",
				StartedAt:  t0,
				FinishedAt: t0.Add(time.Second),
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			now := t0
			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(err)
			svc, err := run.NewService(run.ServiceConfig{
				Runner:     test.runner,
				Repository: repo,
				TimeNow: func() time.Time {
					defer func() { now = now.Add(time.Second) }()
					return now
				},
			})
			require.NoError(err)

			resp, err := svc.Run(context.TODO(), test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				assert.NoError(err)
			}
			require.NotNil(resp)
			assert.Equal(test.expExited, resp.Result.Exited)
			assert.Equal(test.expExited, run.ExitCode(resp, err))
			require.NotEmpty(resp.RunID)

			records, err := repo.ListRuns(context.TODO(), 0)
			require.NoError(err)
			require.Len(records, 1)

			test.expRecord.ID = resp.RunID
			assert.Equal(test.expRecord, records[0])
		})
	}
}

func TestServiceRunHistoryFailureIsNotFatal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repo := storagemock.NewMockRepository(t)
	repo.On("CreateRun", mock.Anything, mock.MatchedBy(func(r model.RunRecord) bool {
		return r.Command == "echo foo" && r.Exited == 0 && r.ID != ""
	})).Once().Return(fmt.Errorf("disk full"))

	svc, err := run.NewService(run.ServiceConfig{
		Runner:     fakeRunner(0, "foo\n", "", nil),
		Repository: repo,
	})
	require.NoError(err)

	resp, err := svc.Run(context.TODO(), run.Request{Command: "echo foo"})
	require.NoError(err)
	assert.Empty(resp.RunID)
	assert.Equal("foo\n", resp.Result.Stdout)
}

func TestServiceRunWithoutResult(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	repo := storagemock.NewMockRepository(t)
	spawnErr := &model.SpawnError{Command: "true", Err: fmt.Errorf("no such file or directory")}
	svc, err := run.NewService(run.ServiceConfig{
		Runner: runnerFunc(func(context.Context, model.CommandSpec) (*model.Result, error) {
			return nil, spawnErr
		}),
		Repository: repo,
	})
	require.NoError(err)

	resp, err := svc.Run(context.TODO(), run.Request{Command: "true", Warn: ptr(true)})
	assert.Nil(resp)
	assert.ErrorIs(err, model.ErrSpawn)
	assert.Equal(1, run.ExitCode(resp, err))
	repo.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
}
