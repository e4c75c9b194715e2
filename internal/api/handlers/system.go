package handlers

import (
	"context"
	"net/http"
	"os/exec"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/mediaproxy/internal/ratelimit"
)

type SystemHandler struct {
	limiter    *ratelimit.Limiter
	ytdlpPath  string
	ffmpegPath string
}

func NewSystemHandler(limiter *ratelimit.Limiter, ytdlpPath, ffmpegPath string) *SystemHandler {
	return &SystemHandler{limiter: limiter, ytdlpPath: ytdlpPath, ffmpegPath: ffmpegPath}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Health is the legacy health endpoint kept for existing frontends.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if _, err := exec.LookPath(h.ytdlpPath); err != nil {
		checks["yt-dlp"] = err.Error()
		healthy = false
	} else {
		checks["yt-dlp"] = "ok"
	}

	if _, err := exec.LookPath(h.ffmpegPath); err != nil {
		checks["ffmpeg"] = err.Error()
		healthy = false
	} else {
		checks["ffmpeg"] = "ok"
	}

	if err := h.limiter.Ping(ctx); err != nil {
		checks["rate_limiter"] = err.Error()
		healthy = false
	} else {
		checks["rate_limiter"] = h.limiter.Backend()
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}
