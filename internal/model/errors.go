package model

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrSpawn is matched by every SpawnError.
	ErrSpawn = errors.New("command could not be started")
	// ErrNonZeroExit is matched by every ExitError.
	ErrNonZeroExit = errors.New("command exited with nonzero code")
	// ErrPtyUnsupported is returned when a pty is requested on a platform without pty support.
	ErrPtyUnsupported = errors.New("pty is not supported on this platform")
)

// SpawnError is returned when the command process could not be started
// (missing or non executable shell, permission denied...). There is no Result.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("could not start %q: %s", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

// ExitError is returned when a command exits with a nonzero code and warn is
// not set. It carries the full Result.
type ExitError struct {
	Result *Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", e.Result.Command, e.Result.Exited)
	if e.Result.Stderr != "" {
		msg += fmt.Sprintf(": stderr: %s", lastLine(e.Result.Stderr))
	}
	return msg
}

func (e *ExitError) Is(target error) bool { return target == ErrNonZeroExit }

func lastLine(s string) string {
	const maxLen = 200

	end := len(s)
	for end > 0 && (s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && s[start-1] != '\n' {
		start--
	}
	line := s[start:end]
	if len(line) > maxLen {
		cut := len(line) - maxLen
		for cut < len(line) && !utf8.RuneStart(line[cut]) {
			cut++
		}
		line = line[cut:]
	}
	return line
}
