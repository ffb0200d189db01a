//go:build !windows

package runner_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/runner"
)

func newSpec(t *testing.T, command string, opts ...model.CommandSpecOption) model.CommandSpec {
	t.Helper()
	spec, err := model.NewCommandSpec(command, opts...)
	require.NoError(t, err)
	return spec
}

// setUTF8Locale makes the default output encoding UTF-8 whatever the host locale is.
func setUTF8Locale(t *testing.T) {
	t.Helper()
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "C.UTF-8")
}

func newRunner(t *testing.T, cfg runner.Config) (r *runner.Runner, stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	cfg.Stdout = stdout
	cfg.Stderr = stderr
	cfg.Logger = log.Noop
	r, err := runner.New(cfg)
	require.NoError(t, err)
	return r, stdout, stderr
}

func TestRunnerRun(t *testing.T) {
	setUTF8Locale(t)

	tests := map[string]struct {
		command    string
		opts       []model.CommandSpecOption
		expResult  model.Result
		expEchoOut string
		expEchoErr string
		expErr     error
	}{
		"A simple command should capture its stdout.": {
			command:    "echo foo",
			expResult:  model.Result{Command: "echo foo", Exited: 0, Stdout: "foo\n"},
			expEchoOut: "foo\n",
		},

		"Stderr should be captured on its own.": {
			command:    "echo foo && echo bar >&2",
			expResult:  model.Result{Command: "echo foo && echo bar >&2", Stdout: "foo\n", Stderr: "bar\n"},
			expEchoOut: "foo\n",
			expEchoErr: "bar\n",
		},

		"Hiding stdout should only stop the stdout echo.": {
			command:    "echo foo && echo bar >&2",
			opts:       []model.CommandSpecOption{model.WithHide(model.HideStdout)},
			expResult:  model.Result{Command: "echo foo && echo bar >&2", Stdout: "foo\n", Stderr: "bar\n"},
			expEchoErr: "bar\n",
		},

		"Hiding stderr should only stop the stderr echo.": {
			command:    "echo foo && echo bar >&2",
			opts:       []model.CommandSpecOption{model.WithHide(model.HideStderr)},
			expResult:  model.Result{Command: "echo foo && echo bar >&2", Stdout: "foo\n", Stderr: "bar\n"},
			expEchoOut: "foo\n",
		},

		"Hiding both should not echo anything but still capture.": {
			command:   "echo foo && echo bar >&2",
			opts:      []model.CommandSpecOption{model.WithHide(model.HideBoth)},
			expResult: model.Result{Command: "echo foo && echo bar >&2", Stdout: "foo\n", Stderr: "bar\n"},
		},

		"A failing command with warn should return the result.": {
			command:   "echo oops >&2; exit 3",
			opts:      []model.CommandSpecOption{model.WithWarn(true), model.WithHide(model.HideBoth)},
			expResult: model.Result{Command: "echo oops >&2; exit 3", Exited: 3, Stderr: "oops\n"},
		},

		"A failing command without warn should fail with the result attached.": {
			command:   "echo oops >&2; exit 3",
			opts:      []model.CommandSpecOption{model.WithHide(model.HideBoth)},
			expResult: model.Result{Command: "echo oops >&2; exit 3", Exited: 3, Stderr: "oops\n"},
			expErr:    model.ErrNonZeroExit,
		},

		"Non UTF-8 bytes should not fail.": {
			command:   `printf '\377\n'`,
			opts:      []model.CommandSpecOption{model.WithHide(model.HideBoth)},
			expResult: model.Result{Command: `printf '\377\n'`, Stdout: "�\n"},
		},

		"Non UTF-8 bytes should be decoded with the selected encoding.": {
			command:   `printf '\377\n'`,
			opts:      []model.CommandSpecOption{model.WithHide(model.HideBoth), model.WithEncoding("iso-8859-1")},
			expResult: model.Result{Command: `printf '\377\n'`, Stdout: "ÿ\n"},
		},

		"A missing command should be reported by the shell exit code.": {
			command:   "this-command-does-not-exist-invk",
			opts:      []model.CommandSpecOption{model.WithWarn(true), model.WithHide(model.HideBoth)},
			expResult: model.Result{Command: "this-command-does-not-exist-invk", Exited: 127},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			r, echoOut, echoErr := newRunner(t, runner.Config{})
			spec := newSpec(t, test.command, test.opts...)

			res, err := r.Run(context.Background(), spec)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				var exitErr *model.ExitError
				require.True(errors.As(err, &exitErr))
				assert.Equal(res, exitErr.Result)
			} else {
				require.NoError(err)
			}
			require.NotNil(res)

			// Shells differ on the "not found" message, only check the code there.
			if test.expResult.Exited == 127 {
				assert.Equal(127, res.Exited)
				assert.Empty(res.Stdout)
				assert.NotEmpty(res.Stderr)
				return
			}

			assert.Equal(test.expResult, *res)
			assert.Equal(test.expEchoOut, echoOut.String())
			assert.Equal(test.expEchoErr, echoErr.String())
		})
	}
}

func TestRunnerSpawnError(t *testing.T) {
	assert := assert.New(t)

	r, _, _ := newRunner(t, runner.Config{Shell: "/this/shell/does/not/exist"})
	spec := newSpec(t, "echo foo", model.WithWarn(true))

	res, err := r.Run(context.Background(), spec)
	assert.Nil(res)
	assert.ErrorIs(err, model.ErrSpawn)
	assert.ErrorIs(err, os.ErrNotExist)
}

func TestRunnerInvalidSpec(t *testing.T) {
	r, _, _ := newRunner(t, runner.Config{})

	_, err := r.Run(context.Background(), model.CommandSpec{})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestRunnerEnvAndDir(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(err)

	r, _, _ := newRunner(t, runner.Config{
		Dir: dir,
		Env: map[string]string{"INVK_TEST_VALUE": "hello"},
	})
	res, err := r.Run(context.Background(), newSpec(t, `echo "$INVK_TEST_VALUE"; pwd -P`, model.WithHide(model.HideBoth)))
	require.NoError(err)

	assert.Equal("hello\n"+dir+"\n", res.Stdout)
}

func TestRunnerLargeOutputOnBothStreams(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	const size = 1 << 20
	r, _, _ := newRunner(t, runner.Config{})
	spec := newSpec(t,
		"head -c 1048576 /dev/zero | tr '\\0' a; head -c 1048576 /dev/zero | tr '\\0' b >&2",
		model.WithHide(model.HideBoth),
	)

	res, err := r.Run(context.Background(), spec)
	require.NoError(err)

	assert.Len(res.Stdout, size)
	assert.Len(res.Stderr, size)
	assert.Equal(strings.Repeat("a", size), res.Stdout)
}

func TestRunnerIdempotent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r, _, _ := newRunner(t, runner.Config{})
	spec := newSpec(t, "echo foo; echo bar >&2; exit 2", model.WithWarn(true), model.WithHide(model.HideBoth))

	res1, err := r.Run(context.Background(), spec)
	require.NoError(err)
	res2, err := r.Run(context.Background(), spec)
	require.NoError(err)

	assert.Equal(res1, res2)
}

func TestRunnerInterrupt(t *testing.T) {
	tests := map[string]struct {
		command   string
		expStdout string
	}{
		"A single process should be interrupted.": {
			command:   "echo started; exec sleep 10",
			expStdout: "started\n",
		},

		"A shell waiting on a foreground child should be interrupted with it.": {
			command:   "echo started; sleep 10",
			expStdout: "started\n",
		},

		"A pipeline should be interrupted.": {
			command:   "echo started; sleep 10 | cat",
			expStdout: "started\n",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			// A kill would only happen after the interrupt grace.
			r, _, _ := newRunner(t, runner.Config{
				InterruptGrace: 5 * time.Second,
				DrainGrace:     50 * time.Millisecond,
			})
			spec := newSpec(t, test.command, model.WithWarn(true), model.WithHide(model.HideBoth))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			time.AfterFunc(300*time.Millisecond, cancel)

			start := time.Now()
			res, err := r.Run(ctx, spec)
			require.NoError(err)

			assert.Less(time.Since(start), 3*time.Second)
			assert.Equal(test.expStdout, res.Stdout)
			assert.Equal(130, res.Exited)
		})
	}
}

func TestRunnerInterruptKillsBackgroundProcesses(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r, _, _ := newRunner(t, runner.Config{
		InterruptGrace: 5 * time.Second,
		DrainGrace:     50 * time.Millisecond,
	})
	// Background jobs of a non interactive shell ignore SIGINT.
	spec := newSpec(t, "sleep 30 & echo $!; wait", model.WithWarn(true), model.WithHide(model.HideBoth))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(300*time.Millisecond, cancel)

	start := time.Now()
	res, err := r.Run(ctx, spec)
	require.NoError(err)
	assert.Less(time.Since(start), 3*time.Second)

	pid, err := strconv.Atoi(strings.TrimSpace(res.Stdout))
	require.NoError(err)
	assert.Eventually(func() bool { return !processAlive(pid) }, 2*time.Second, 20*time.Millisecond)
}

// processAlive returns false for missing and zombie processes.
func processAlive(pid int) bool {
	if err := syscall.Kill(pid, 0); err != nil {
		return false
	}

	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return true
	}
	// Format: pid (comm) state ...
	_, rest, _ := strings.Cut(string(data), ") ")
	return !strings.HasPrefix(rest, "Z")
}

func TestRunnerReleasesDescriptors(t *testing.T) {
	tests := map[string]struct {
		cfg     runner.Config
		command string
		opts    []model.CommandSpecOption
		cancel  bool
	}{
		"Successful runs.": {
			command: "echo foo; echo bar >&2",
		},

		"Nonzero exits.": {
			command: "echo foo; exit 3",
		},

		"Spawn errors.": {
			cfg:     runner.Config{Shell: "/this/shell/does/not/exist"},
			command: "true",
		},

		"Pty runs.": {
			command: "echo foo; exit 2",
			opts:    []model.CommandSpecOption{model.WithPty(true)},
		},

		"Interrupted runs.": {
			command: "echo started; sleep 10",
			cancel:  true,
		},

		"Interrupted pty runs.": {
			command: "echo started; sleep 10",
			opts:    []model.CommandSpecOption{model.WithPty(true)},
			cancel:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := os.ReadDir("/dev/fd"); err != nil {
				t.Skipf("Can't list open descriptors: %s", err)
			}

			cfg := test.cfg
			cfg.InterruptGrace = 2 * time.Second
			cfg.DrainGrace = 20 * time.Millisecond
			r, _, _ := newRunner(t, cfg)
			opts := append([]model.CommandSpecOption{model.WithHide(model.HideBoth)}, test.opts...)
			spec := newSpec(t, test.command, opts...)

			run := func() {
				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()
				if test.cancel {
					time.AfterFunc(50*time.Millisecond, cancel)
				}
				_, _ = r.Run(ctx, spec)
			}

			// Warm up lazily opened runtime descriptors.
			run()
			before := openDescriptors(t)
			for range 20 {
				run()
			}

			assert.Equal(t, before, openDescriptors(t))
		})
	}
}

func openDescriptors(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir("/dev/fd")
	require.NoError(t, err)
	return len(entries)
}

func TestRunnerCancelledBeforeStart(t *testing.T) {
	r, _, _ := newRunner(t, runner.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, newSpec(t, "echo foo"))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}
