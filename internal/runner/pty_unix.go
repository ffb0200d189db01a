//go:build !windows

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/mattn/go-isatty"

	"github.com/slok/invk/internal/log"
)

var defaultWinsize = pty.Winsize{Rows: 24, Cols: 80}

// ptyProcess runs a command attached to the slave side of a pseudo-terminal.
// The terminal merges stdout and stderr, so a single demuxer reads the master.
type ptyProcess struct {
	echo       io.Writer
	drainGrace time.Duration
	logger     log.Logger

	cmd    *osexec.Cmd
	master *os.File
	slave  *os.File
	output *demuxer
}

// PtySupported returns true if commands can run attached to a pty.
func PtySupported() bool { return true }

func newPtyProcess(echo io.Writer, drainGrace time.Duration, logger log.Logger) (*ptyProcess, error) {
	return &ptyProcess{
		echo:       echo,
		drainGrace: drainGrace,
		logger:     logger.WithValues(log.Kv{"svc": "runner.Pty"}),
	}, nil
}

func (p *ptyProcess) spawn(cmd *osexec.Cmd) error {
	master, slave, err := pty.Open()
	if err != nil {
		return fmt.Errorf("could not allocate pty: %w", err)
	}
	p.master = master
	p.slave = slave

	if err := p.setSize(); err != nil {
		p.logger.Debugf("Could not set pty size: %s", err)
	}

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	// The new session also makes the command the leader of its own process group.
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd

	// The master only reports end of stream once every slave descriptor is closed.
	_ = slave.Close()

	p.output = newDemuxer("pty", master, p.echo, isPtyEOF, p.logger)
	p.output.start()

	return nil
}

// setSize copies the size of the real terminal when there is one.
func (p *ptyProcess) setSize() error {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return pty.InheritSize(os.Stdin, p.slave)
	}
	return pty.Setsize(p.slave, &defaultWinsize)
}

func (p *ptyProcess) wait() (int, error) {
	if p.cmd == nil {
		return -1, errors.New("process not started")
	}
	return waitExitCode(p.cmd)
}

func (p *ptyProcess) read(ctx context.Context) (stdout, stderr []byte) {
	joinDemuxers(ctx, p.drainGrace, p.output)
	return p.output.bytes(), nil
}

func (p *ptyProcess) close() error {
	var errs []error
	for _, f := range []*os.File{p.slave, p.master} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	p.slave, p.master = nil, nil
	return errors.Join(errs...)
}

// isPtyEOF reports the pty master end of stream. Linux returns EIO once the
// slave side is gone.
func isPtyEOF(err error) bool {
	return errors.Is(err, syscall.EIO)
}
