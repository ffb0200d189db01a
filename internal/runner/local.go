package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"time"

	"github.com/slok/invk/internal/log"
)

// localProcess runs a command with independent stdout and stderr pipes, each
// drained by its own demuxer so the child never blocks on a full pipe.
type localProcess struct {
	outEcho    io.Writer
	errEcho    io.Writer
	drainGrace time.Duration
	logger     log.Logger

	cmd    *osexec.Cmd
	files  []*os.File
	stdout *demuxer
	stderr *demuxer
}

func newLocalProcess(outEcho, errEcho io.Writer, drainGrace time.Duration, logger log.Logger) *localProcess {
	return &localProcess{
		outEcho:    outEcho,
		errEcho:    errEcho,
		drainGrace: drainGrace,
		logger:     logger.WithValues(log.Kv{"svc": "runner.Local"}),
	}
}

func (p *localProcess) spawn(cmd *osexec.Cmd) error {
	outR, outW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("could not create stdout pipe: %w", err)
	}
	p.files = append(p.files, outR, outW)

	errR, errW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("could not create stderr pipe: %w", err)
	}
	p.files = append(p.files, errR, errW)

	cmd.Stdout = outW
	cmd.Stderr = errW
	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd

	// The child has its own copies, ours would keep the pipes from reaching EOF.
	_ = outW.Close()
	_ = errW.Close()

	p.stdout = newDemuxer("stdout", outR, p.outEcho, nil, p.logger)
	p.stderr = newDemuxer("stderr", errR, p.errEcho, nil, p.logger)
	p.stdout.start()
	p.stderr.start()

	return nil
}

func (p *localProcess) wait() (int, error) {
	if p.cmd == nil {
		return -1, errors.New("process not started")
	}
	return waitExitCode(p.cmd)
}

func (p *localProcess) read(ctx context.Context) (stdout, stderr []byte) {
	joinDemuxers(ctx, p.drainGrace, p.stdout, p.stderr)
	return p.stdout.bytes(), p.stderr.bytes()
}

func (p *localProcess) close() error {
	var errs []error
	for _, f := range p.files {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	p.files = nil
	return errors.Join(errs...)
}
