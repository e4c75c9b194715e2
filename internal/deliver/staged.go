package deliver

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/mediaproxy/internal/media"
	"github.com/your-org/mediaproxy/internal/observability"
)

const stagedBufferSize = 1024 * 1024

// StagedProducer materializes the complete file in a private scratch
// directory before streaming it. No first byte until the whole file lands,
// but the extractor's own merge logic is authoritative.
type StagedProducer struct {
	ScratchRoot string
	Downloader  StagedDownloader
}

func (p *StagedProducer) Produce(ctx context.Context, plan media.Plan) (*Stream, error) {
	// Unique per job so concurrent requests never collide.
	dir := filepath.Join(p.ScratchRoot, "mediaproxy-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	path, err := p.Downloader.StagedDownload(ctx, plan, dir)
	if err != nil {
		removeScratch(dir)
		return nil, &media.DeliveryError{Stage: "staged", Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		removeScratch(dir)
		return nil, &media.DeliveryError{Stage: "staged", Err: err}
	}

	observability.ActiveDeliveries.Inc()
	body := &stagedReader{
		file: f,
		r:    bufio.NewReaderSize(f, stagedBufferSize),
		dir:  dir,
	}
	return &Stream{Body: body, Filename: plan.Filename, ContentType: plan.ContentType}, nil
}

// stagedReader streams the staged file and deletes it together with its
// scratch directory on Close, on every path. Cleanup failures are logged,
// never propagated.
type stagedReader struct {
	file *os.File
	r    *bufio.Reader
	dir  string
	once sync.Once
}

func (r *stagedReader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

func (r *stagedReader) Close() error {
	r.once.Do(func() {
		observability.ActiveDeliveries.Dec()
		if err := r.file.Close(); err != nil {
			slog.Warn("close staged file", "error", err)
		}
		removeScratch(r.dir)
	})
	return nil
}

func removeScratch(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("remove scratch dir", "dir", dir, "error", err)
	}
}

var _ Producer = (*StagedProducer)(nil)
