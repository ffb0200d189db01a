//go:build !windows

package runner

import (
	"errors"
	"os"
	osexec "os/exec"
	"syscall"
)

// setProcessGroup runs cmd as the leader of a new process group, so the
// whole command tree can be signaled at once.
func setProcessGroup(cmd *osexec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// interrupt sends SIGINT to the process group led by p, like Ctrl-C on a terminal.
func interrupt(p *os.Process) error {
	if p == nil {
		return nil
	}

	err := syscall.Kill(-p.Pid, syscall.SIGINT)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// killGroup kills whatever is left of the process group led by p.
func killGroup(p *os.Process) error {
	if p == nil {
		return nil
	}

	err := syscall.Kill(-p.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
