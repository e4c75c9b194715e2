package deliver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/your-org/mediaproxy/internal/media"
	"github.com/your-org/mediaproxy/internal/observability"
)

const (
	pipeBufferSize = 64 * 1024
	killWait       = 5 * time.Second
)

// PipeProducer streams bytes from the external tool's stdout as they are
// produced, without materializing a file.
type PipeProducer struct {
	Binary string
}

func (p *PipeProducer) Produce(ctx context.Context, plan media.Plan) (*Stream, error) {
	cmd := exec.CommandContext(ctx, p.Binary, plan.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &media.ProcessStartError{Binary: p.Binary, Err: err}
	}

	observability.ActiveDeliveries.Inc()
	body := &pipeReader{
		cmd:    cmd,
		out:    bufio.NewReaderSize(stdout, pipeBufferSize),
		stderr: &stderr,
	}
	return &Stream{Body: body, Filename: plan.Filename, ContentType: plan.ContentType}, nil
}

// pipeReader relays the subprocess stdout. When the stream is exhausted it
// reaps the process and reports a non-zero exit as a delivery failure via
// logging only — whatever bytes were produced have already been relayed.
// Close kills the process if it is still running and waits a bounded time
// for it to exit; it never returns an error.
type pipeReader struct {
	cmd    *exec.Cmd
	out    *bufio.Reader
	stderr *bytes.Buffer

	reaped bool
	once   sync.Once
}

func (r *pipeReader) Read(p []byte) (int, error) {
	n, err := r.out.Read(p)
	if err == io.EOF && !r.reaped {
		r.reaped = true
		if waitErr := r.cmd.Wait(); waitErr != nil {
			slog.Error("delivery interrupted",
				"error", &media.DeliveryError{Stage: "pipe", Err: waitErr},
				"stderr", strings.TrimSpace(r.stderr.String()),
			)
		}
	}
	return n, err
}

func (r *pipeReader) Close() error {
	r.once.Do(func() {
		defer observability.ActiveDeliveries.Dec()
		if r.reaped {
			return
		}
		r.reaped = true

		if r.cmd.Process != nil {
			_ = r.cmd.Process.Kill()
		}
		done := make(chan struct{})
		go func() {
			_ = r.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(killWait):
			slog.Warn("subprocess did not exit after kill", "binary", r.cmd.Path)
		}
	})
	return nil
}

var _ Producer = (*PipeProducer)(nil)
