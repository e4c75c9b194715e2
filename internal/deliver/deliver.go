package deliver

import (
	"context"
	"io"

	"github.com/your-org/mediaproxy/internal/config"
	"github.com/your-org/mediaproxy/internal/media"
)

// Stream is the uniform delivery result: a lazy, single-pass byte source
// plus the response metadata the HTTP boundary needs. Body must be closed
// on every path; Close is idempotent and releases every scratch resource
// (process, temp files) held by the job.
type Stream struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
}

// Producer executes a plan and exposes its byte stream. The two
// implementations (subprocess pipe, staged file) are interchangeable; the
// strategy is fixed once per deployment by configuration.
type Producer interface {
	Produce(ctx context.Context, plan media.Plan) (*Stream, error)
}

// StagedDownloader is the extractor capability the staged producer needs.
type StagedDownloader interface {
	StagedDownload(ctx context.Context, plan media.Plan, destDir string) (string, error)
}

// NewProducer picks the delivery strategy from config.
func NewProducer(cfg config.DeliveryConfig, downloader StagedDownloader) Producer {
	if media.Strategy(cfg.Strategy) == media.StrategyStaged {
		return &StagedProducer{ScratchRoot: cfg.ScratchDir, Downloader: downloader}
	}
	return &PipeProducer{Binary: cfg.FFmpegPath}
}
