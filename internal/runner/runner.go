package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
	"github.com/slok/invk/internal/textenc"
)

const (
	defaultInterruptGrace = 3 * time.Second
	defaultDrainGrace     = 500 * time.Millisecond
)

// Config is the configuration for the runner.
type Config struct {
	// Shell is the shell binary used to interpret commands.
	// Defaults to /bin/sh (cmd.exe on windows).
	Shell string
	// Env holds extra environment variables added on top of the current process ones.
	Env map[string]string
	// Dir is the working directory of the commands (defaults to the current one).
	Dir string
	// Stdout is where live stdout (and pty) output is echoed. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr is where live stderr output is echoed. Defaults to os.Stderr.
	Stderr io.Writer
	// InterruptGrace is how long an interrupted command has to exit before being killed.
	InterruptGrace time.Duration
	// DrainGrace is how long the output streams are drained after an interruption.
	DrainGrace time.Duration
	Logger     log.Logger
}

func (c *Config) defaults() error {
	if c.Shell == "" {
		c.Shell = DefaultShell()
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.InterruptGrace <= 0 {
		c.InterruptGrace = defaultInterruptGrace
	}
	if c.DrainGrace <= 0 {
		c.DrainGrace = defaultDrainGrace
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "runner.Runner"})
	return nil
}

// DefaultShell returns the platform shell used when none is configured.
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	return "/bin/sh"
}

// process is a single command execution, either local (two pipes) or
// attached to a pty (one merged stream). It owns every descriptor of the run.
type process interface {
	// spawn starts cmd and its output demuxers.
	spawn(cmd *osexec.Cmd) error
	// wait blocks until the process exits and returns its exit code.
	wait() (int, error)
	// read blocks until all the output has been drained.
	read(ctx context.Context) (stdout, stderr []byte)
	// close releases all the descriptors, safe to call more than once.
	close() error
}

// Runner runs commands either as plain subprocesses or attached to a pty.
type Runner struct {
	shell          string
	env            map[string]string
	dir            string
	stdout         io.Writer
	stderr         io.Writer
	interruptGrace time.Duration
	drainGrace     time.Duration
	logger         log.Logger
}

// New returns a new Runner.
func New(cfg Config) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		shell:          cfg.Shell,
		env:            cfg.Env,
		dir:            cfg.Dir,
		stdout:         cfg.Stdout,
		stderr:         cfg.Stderr,
		interruptGrace: cfg.InterruptGrace,
		drainGrace:     cfg.DrainGrace,
		logger:         cfg.Logger,
	}, nil
}

// Run runs the command described by spec and blocks until it has exited and
// all its output has been captured.
//
// A nonzero exit returns the Result together with a *model.ExitError, unless
// the command has warn set. Spawn failures return a *model.SpawnError and no
// Result. Cancelling ctx interrupts the command; the Result keeps whatever
// output was captured until then.
func (r *Runner) Run(ctx context.Context, spec model.CommandSpec) (*model.Result, error) {
	if spec.Command() == "" {
		return nil, fmt.Errorf("command spec is required: %w", model.ErrNotValid)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enc, err := textenc.Lookup(spec.Encoding())
	if err != nil {
		return nil, fmt.Errorf("invalid encoding: %s: %w", err, model.ErrNotValid)
	}

	p, err := r.newProcess(spec)
	if err != nil {
		return nil, err
	}
	defer p.close()

	logger := r.logger.WithValues(log.Kv{"pty": spec.Pty()})
	cmd := r.command(ctx, spec.Command())

	logger.Debugf("Running command: %s", spec.Command())
	if err := p.spawn(cmd); err != nil {
		return nil, &model.SpawnError{Command: spec.Command(), Err: err}
	}

	exited, err := p.wait()
	if err != nil {
		return nil, fmt.Errorf("could not wait for command: %w", err)
	}
	if ctx.Err() != nil {
		// Processes that survived the interrupt would keep the output streams open.
		if err := killGroup(cmd.Process); err != nil {
			logger.Warningf("Could not kill the command process group: %s", err)
		}
	}
	stdout, stderr := p.read(ctx)

	if ctx.Err() != nil {
		logger.Warningf("Command interrupted, exited with code %d", exited)
	} else {
		logger.Debugf("Command exited with code %d", exited)
	}

	res := &model.Result{
		Command: spec.Command(),
		Exited:  exited,
		Stdout:  textenc.Decode(stdout, enc),
		Stderr:  textenc.Decode(stderr, enc),
		Pty:     spec.Pty(),
	}

	return res, exitPolicy(spec, res)
}

// exitPolicy decides if a finished run is an error.
func exitPolicy(spec model.CommandSpec, res *model.Result) error {
	if res.Exited != 0 && !spec.Warn() {
		return &model.ExitError{Result: res}
	}
	return nil
}

func (r *Runner) newProcess(spec model.CommandSpec) (process, error) {
	// Both streams share one lock when they echo to the same place.
	mu := &sync.Mutex{}

	if spec.Pty() {
		var echo io.Writer
		if !spec.Hide().HidesStdout() {
			echo = lockedWriter{mu: mu, w: r.stdout}
		}
		return newPtyProcess(echo, r.drainGrace, r.logger)
	}

	var outEcho, errEcho io.Writer
	if !spec.Hide().HidesStdout() {
		outEcho = lockedWriter{mu: mu, w: r.stdout}
	}
	if !spec.Hide().HidesStderr() {
		errEcho = lockedWriter{mu: mu, w: r.stderr}
	}
	return newLocalProcess(outEcho, errEcho, r.drainGrace, r.logger), nil
}

func (r *Runner) command(ctx context.Context, command string) *osexec.Cmd {
	cmd := osexec.CommandContext(ctx, r.shell, shellFlag(r.shell), command)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), envList(r.env)...)

	// Interrupt the whole process group like a terminal would, kill only if the command ignores it.
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = r.interruptGrace

	return cmd
}

func shellFlag(shell string) string {
	base := strings.ToLower(filepath.Base(shell))
	if base == "cmd" || base == "cmd.exe" {
		return "/C"
	}
	return "-c"
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+env[k])
	}
	return list
}
