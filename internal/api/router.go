package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/mediaproxy/internal/api/handlers"
	"github.com/your-org/mediaproxy/internal/ratelimit"
)

type RouterConfig struct {
	APIKey     string
	CORSOrigin string
	Limiter    *ratelimit.Limiter
	Media      *handlers.MediaHandler
	System     *handlers.SystemHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(SecurityHeaders())

	corsCfg := cors.DefaultConfig()
	if cfg.CORSOrigin == "" || cfg.CORSOrigin == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSOrigin}
	}
	corsCfg.ExposeHeaders = append(corsCfg.ExposeHeaders, "Content-Disposition")
	r.Use(cors.New(corsCfg))

	// System endpoints (no rate limit, no auth)
	r.GET("/healthz", cfg.System.Healthz)
	r.GET("/readyz", cfg.System.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(RateLimitMiddleware(cfg.Limiter))
	api.Use(APIKeyMiddleware(cfg.APIKey))

	api.GET("/health", cfg.System.Health)
	api.POST("/info", cfg.Media.Info)
	api.GET("/download", cfg.Media.Download)
	api.GET("/subtitles", cfg.Media.Subtitles)

	return r
}
