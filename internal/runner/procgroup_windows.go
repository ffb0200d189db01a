//go:build windows

package runner

import (
	"errors"
	"os"
	osexec "os/exec"
)

func setProcessGroup(_ *osexec.Cmd) {}

// interrupt kills p, windows has no interrupt signal to forward.
func interrupt(p *os.Process) error {
	if p == nil {
		return nil
	}

	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return os.ErrProcessDone
	}
	return err
}

func killGroup(_ *os.Process) error { return nil }
