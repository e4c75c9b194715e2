package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/mediaproxy/internal/api"
	"github.com/your-org/mediaproxy/internal/api/handlers"
	"github.com/your-org/mediaproxy/internal/config"
	"github.com/your-org/mediaproxy/internal/deliver"
	"github.com/your-org/mediaproxy/internal/extract"
	"github.com/your-org/mediaproxy/internal/media"
	"github.com/your-org/mediaproxy/internal/observability"
	"github.com/your-org/mediaproxy/internal/ratelimit"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting mediaproxy API service",
		"port", cfg.Server.Port,
		"delivery_strategy", cfg.Delivery.Strategy,
	)

	extractor := extract.NewClient(cfg.Extractor)
	producer := deliver.NewProducer(cfg.Delivery, extractor)
	limiter := ratelimit.New(cfg.RateLimit)

	router := api.NewRouter(api.RouterConfig{
		APIKey:     cfg.Server.APIKey,
		CORSOrigin: cfg.Server.CORSOrigin,
		Limiter:    limiter,
		Media:      handlers.NewMediaHandler(extractor, producer, media.Strategy(cfg.Delivery.Strategy)),
		System:     handlers.NewSystemHandler(limiter, cfg.Extractor.BinaryPath, cfg.Delivery.FFmpegPath),
	})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: downloads stream for as long as the media lasts.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
