//go:build windows

package runner

import (
	"context"
	"io"
	osexec "os/exec"
	"time"

	"github.com/slok/invk/internal/log"
	"github.com/slok/invk/internal/model"
)

// PtySupported returns true if commands can run attached to a pty.
func PtySupported() bool { return false }

type ptyProcess struct{}

func newPtyProcess(_ io.Writer, _ time.Duration, _ log.Logger) (*ptyProcess, error) {
	return nil, model.ErrPtyUnsupported
}

func (p *ptyProcess) spawn(_ *osexec.Cmd) error { return model.ErrPtyUnsupported }
func (p *ptyProcess) wait() (int, error) { return -1, model.ErrPtyUnsupported }
func (p *ptyProcess) read(_ context.Context) (stdout, stderr []byte) { return nil, nil }
func (p *ptyProcess) close() error { return nil }
