package lib

import (
	"time"

	"github.com/slok/invk/internal/model"
)

// Hide selects which output streams are kept off the terminal.
// Hidden streams are still captured on the [Result].
type Hide string

const (
	// HideNone echoes both streams (default).
	HideNone Hide = "none"
	// HideStdout suppresses the stdout echo.
	HideStdout Hide = "stdout"
	// HideStderr suppresses the stderr echo.
	HideStderr Hide = "stderr"
	// HideBoth suppresses all echo.
	HideBoth Hide = "both"
)

// RunOptions configures a single command run.
// A nil *RunOptions uses the defaults.
type RunOptions struct {
	// Hide selects the streams kept off the terminal.
	// Default: [HideNone].
	Hide Hide
	// Warn returns nonzero exits as results instead of [ErrNonZeroExit] errors.
	Warn bool
	// Pty runs the command attached to a pseudo-terminal.
	Pty bool
	// Encoding used to decode the output (e.g. "utf-8", "iso-8859-1").
	// Default: the client encoding.
	Encoding string
}

// Result is the outcome of a finished command.
type Result struct {
	// Command is the command line that was executed.
	Command string
	// Exited is the exit code of the command.
	Exited int
	// Stdout is the decoded standard output. On pty runs it also holds the standard error.
	Stdout string
	// Stderr is the decoded standard error, empty on pty runs.
	Stderr string
	// Pty is true when the command ran attached to a pseudo-terminal.
	Pty bool
}

// OK returns true if the command exited with a zero code.
func (r Result) OK() bool { return r.Exited == 0 }

// Failed returns true if the command exited with a nonzero code.
func (r Result) Failed() bool { return !r.OK() }

// RunRecord is a run stored on the history.
type RunRecord struct {
	// ID is the unique identifier (ULID) of the run.
	ID string
	// Command is the command line that was executed.
	Command string
	// Exited is the exit code of the command.
	Exited int
	// Pty is true when the command ran attached to a pseudo-terminal.
	Pty bool
	// StdoutBytes and StderrBytes are the sizes of the decoded output.
	StdoutBytes int
	StderrBytes int
	// StartedAt is when the command was started.
	StartedAt time.Time
	// Duration is how long the command took.
	Duration time.Duration
}

// CheckStatus represents the status of a preflight check.
type CheckStatus string

const (
	// CheckStatusOK indicates the check passed.
	CheckStatusOK CheckStatus = "ok"
	// CheckStatusWarning indicates the check passed with a warning.
	CheckStatusWarning CheckStatus = "warning"
	// CheckStatusError indicates the check failed.
	CheckStatusError CheckStatus = "error"
)

// CheckResult represents the result of a single preflight check.
type CheckResult struct {
	// ID is a unique identifier for the check (e.g. "shell_available").
	ID string
	// Message is a human-readable description of the result.
	Message string
	// Status is the check status.
	Status CheckStatus
}

// --- Internal conversion helpers ---

func fromInternalResult(r *model.Result) *Result {
	if r == nil {
		return nil
	}
	return &Result{
		Command: r.Command,
		Exited:  r.Exited,
		Stdout:  r.Stdout,
		Stderr:  r.Stderr,
		Pty:     r.Pty,
	}
}

func fromInternalRunRecords(rs []model.RunRecord) []RunRecord {
	out := make([]RunRecord, 0, len(rs))
	for _, r := range rs {
		out = append(out, RunRecord{
			ID:          r.ID,
			Command:     r.Command,
			Exited:      r.Exited,
			Pty:         r.Pty,
			StdoutBytes: r.StdoutBytes,
			StderrBytes: r.StderrBytes,
			StartedAt:   r.StartedAt,
			Duration:    r.Duration(),
		})
	}
	return out
}

func fromInternalCheckResults(results []model.CheckResult) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{
			ID:      r.ID,
			Message: r.Message,
			Status:  CheckStatus(r.Status),
		}
	}
	return out
}
