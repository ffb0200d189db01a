package lib

import (
	"errors"

	"github.com/slok/invk/internal/model"
)

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when the input is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrSpawn is returned when a command could not be started.
	ErrSpawn = errors.New("could not spawn command")
	// ErrNonZeroExit is returned when a command exits with a nonzero code.
	ErrNonZeroExit = errors.New("command exited with nonzero code")
	// ErrPtyUnsupported is returned when pty is requested on a platform without it.
	ErrPtyUnsupported = errors.New("pty is not supported on this platform")
)

// ExitError is the error returned by a nonzero exit, it carries the full result.
type ExitError struct {
	Result *Result
	err    error
}

func (e *ExitError) Error() string { return e.err.Error() }

func (e *ExitError) Is(target error) bool { return target == ErrNonZeroExit }

func (e *ExitError) Unwrap() error { return e.err }

var sentinels = []struct {
	internal error
	public   error
}{
	{model.ErrNotFound, ErrNotFound},
	{model.ErrAlreadyExists, ErrAlreadyExists},
	{model.ErrNotValid, ErrNotValid},
	{model.ErrSpawn, ErrSpawn},
	{model.ErrPtyUnsupported, ErrPtyUnsupported},
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *model.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Result: fromInternalResult(exitErr.Result), err: err}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.internal) {
			return joinErrors(err, s.public)
		}
	}
	return err
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
