package model

// Result is the outcome of a finished command. It is built once, after the
// process has terminated and all its output has been drained.
type Result struct {
	// Command is the command line that was executed.
	Command string
	// Exited is the exit code reported by the operating system.
	Exited int
	// Stdout is the decoded standard output. When Pty is set it also holds
	// the standard error, the terminal merges both streams.
	Stdout string
	// Stderr is the decoded standard error, always empty when Pty is set.
	Stderr string
	// Pty is true when the command ran attached to a pseudo-terminal.
	Pty bool
}

// OK returns true if the command exited with a zero code.
func (r Result) OK() bool { return r.Exited == 0 }

// Failed returns true if the command exited with a nonzero code.
func (r Result) Failed() bool { return !r.OK() }
