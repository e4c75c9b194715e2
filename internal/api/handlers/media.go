package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/mediaproxy/internal/deliver"
	"github.com/your-org/mediaproxy/internal/extract"
	"github.com/your-org/mediaproxy/internal/media"
	"github.com/your-org/mediaproxy/internal/observability"
	"github.com/your-org/mediaproxy/pkg/dto"
)

const relayChunkSize = 64 * 1024

// Extractor is the probe/subtitle capability the handler consumes;
// satisfied by *extract.Client.
type Extractor interface {
	Probe(ctx context.Context, url string) (*extract.Info, error)
	DownloadSubtitles(ctx context.Context, url, lang string) ([]byte, string, error)
}

type MediaHandler struct {
	extractor Extractor
	producer  deliver.Producer
	tiers     media.CodecTiers
	strategy  media.Strategy
}

func NewMediaHandler(extractor Extractor, producer deliver.Producer, strategy media.Strategy) *MediaHandler {
	return &MediaHandler{
		extractor: extractor,
		producer:  producer,
		tiers:     media.DefaultCodecTiers,
		strategy:  strategy,
	}
}

// Info probes metadata for a URL. Playlist URLs are a valid result type
// here, not an error.
func (h *MediaHandler) Info(c *gin.Context) {
	var req dto.InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	info, err := h.extractor.Probe(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	if info.IsPlaylist {
		resp := dto.PlaylistInfoResponse{
			Type:   "playlist",
			Title:  info.Title,
			Count:  len(info.Entries),
			Videos: make([]dto.PlaylistEntry, 0, len(info.Entries)),
		}
		for _, e := range info.Entries {
			resp.Videos = append(resp.Videos, dto.PlaylistEntry{URL: e.URL, Title: e.Title})
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, dto.VideoInfoResponse{
		Type:         "video",
		Title:        info.Title,
		Duration:     info.Duration,
		Thumbnail:    info.Thumbnail,
		HasSubtitles: info.HasSubtitles,
	})
}

// Download probes the URL once, selects formats for the requested quality
// and mode, and relays the produced bytes as an attachment. Once streaming
// has begun, failures can only end the stream short — they are logged, the
// status line is already gone.
func (h *MediaHandler) Download(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}
	req := media.ParseRequest(c.DefaultQuery("quality", "1080"), c.DefaultQuery("mode", "video"))

	info, err := h.extractor.Probe(c.Request.Context(), url)
	if err != nil {
		h.fail(c, req.Mode, err)
		return
	}
	if info.IsPlaylist {
		h.fail(c, req.Mode, media.ErrPlaylistNotSupported)
		return
	}

	catalog := media.NewCatalog(info.Formats)

	var sel media.Selection
	if req.Mode == media.ModeAudio {
		sel, err = media.SelectAudioOnly(catalog)
	} else {
		sel, err = media.SelectVideoAndAudio(catalog, req.TargetHeight, req.Container, h.tiers)
	}
	if err != nil {
		h.fail(c, req.Mode, err)
		return
	}

	plan, err := media.BuildPlan(sel, req, info.Title, url, h.strategy)
	if err != nil {
		h.fail(c, req.Mode, err)
		return
	}

	stream, err := h.producer.Produce(c.Request.Context(), plan)
	if err != nil {
		h.fail(c, req.Mode, err)
		return
	}
	defer stream.Body.Close()

	c.Header("Content-Type", stream.ContentType)
	c.Header("Content-Disposition", media.DispositionHeader(stream.Filename))
	c.Header("Access-Control-Expose-Headers", "Content-Disposition")
	c.Status(http.StatusOK)

	buf := make([]byte, relayChunkSize)
	written, copyErr := io.CopyBuffer(c.Writer, stream.Body, buf)
	observability.BytesStreamed.Add(float64(written))
	if copyErr != nil {
		// Client disconnects land here; cleanup runs via the deferred Close.
		slog.Warn("download relay ended early",
			"url", url, "bytes", written, "error", copyErr)
		observability.DownloadsTotal.WithLabelValues(req.Mode.String(), "interrupted").Inc()
		return
	}
	observability.DownloadsTotal.WithLabelValues(req.Mode.String(), "ok").Inc()
}

// Subtitles fetches the subtitle track for a language as SRT.
func (h *MediaHandler) Subtitles(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}
	lang := c.DefaultQuery("lang", "en")

	content, filename, err := h.extractor.DownloadSubtitles(c.Request.Context(), url, lang)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", media.DispositionHeader(filename))
	c.Header("Access-Control-Expose-Headers", "Content-Disposition")
	c.Data(http.StatusOK, "text/plain", content)
}

func (h *MediaHandler) fail(c *gin.Context, mode media.Mode, err error) {
	observability.DownloadsTotal.WithLabelValues(mode.String(), "error").Inc()
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// errorStatus maps the error taxonomy to HTTP statuses. Only errors raised
// before any bytes are sent reach this mapping.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, media.ErrPlaylistNotSupported),
		errors.Is(err, media.ErrDurationExceeded):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrNoPlayableStream),
		errors.Is(err, media.ErrNoSubtitles):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
