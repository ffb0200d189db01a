package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slok/invk/internal/log"
)

const chunkSize = 4096

// demuxer drains a single OS stream on its own goroutine. Every chunk is
// echoed (when an echo sink is set) and appended to a buffer only the demuxer
// writes to. The buffer is handed out once the loop has finished.
type demuxer struct {
	name   string
	r      io.ReadCloser
	echo   io.Writer
	isEOF  func(error) bool
	logger log.Logger

	buf     bytes.Buffer
	done    chan struct{}
	stopped atomic.Bool
}

func newDemuxer(name string, r io.ReadCloser, echo io.Writer, isEOF func(error) bool, logger log.Logger) *demuxer {
	return &demuxer{
		name:   name,
		r:      r,
		echo:   echo,
		isEOF:  isEOF,
		logger: logger.WithValues(log.Kv{"stream": name}),
		done:   make(chan struct{}),
	}
}

func (d *demuxer) start() { go d.loop() }

func (d *demuxer) loop() {
	defer close(d.done)

	chunk := make([]byte, chunkSize)
	for {
		n, err := d.r.Read(chunk)
		if n > 0 {
			d.write(chunk[:n])
		}
		if err != nil {
			if !d.endOfStream(err) {
				d.logger.Warningf("Stopped reading after I/O error: %s", err)
			}
			return
		}
	}
}

func (d *demuxer) write(p []byte) {
	if d.echo != nil {
		if _, err := d.echo.Write(p); err != nil {
			d.logger.Warningf("Disabling live echo: %s", err)
			d.echo = nil
		}
	}
	d.buf.Write(p)
}

func (d *demuxer) endOfStream(err error) bool {
	switch {
	case errors.Is(err, io.EOF):
		return true
	case errors.Is(err, os.ErrClosed) && d.stopped.Load():
		// Closed by stop(), an interruption and not a failure.
		return true
	case d.isEOF != nil && d.isEOF(err):
		return true
	}
	return false
}

// stop unblocks a pending read by closing the stream.
func (d *demuxer) stop() {
	d.stopped.Store(true)
	_ = d.r.Close()
}

// bytes blocks until the loop has finished and returns the captured data.
func (d *demuxer) bytes() []byte {
	<-d.done
	return d.buf.Bytes()
}

// joinDemuxers waits until every demuxer reaches end of stream. Once ctx is
// done the demuxers get grace to drain what is left before being stopped.
func joinDemuxers(ctx context.Context, grace time.Duration, ds ...*demuxer) {
	all := make(chan struct{})
	go func() {
		defer close(all)
		for _, d := range ds {
			<-d.done
		}
	}()

	select {
	case <-all:
		return
	case <-ctx.Done():
	}

	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-all:
		return
	case <-t.C:
	}

	for _, d := range ds {
		d.stop()
	}
	<-all
}

// lockedWriter serializes writes of several demuxers sharing one echo sink.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
