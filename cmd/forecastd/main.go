package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/aq-forecast-gateway/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/aq-forecast-gateway/internal/adapter/kafka"
	"github.com/couchcryptid/aq-forecast-gateway/internal/adapter/predictapi"
	"github.com/couchcryptid/aq-forecast-gateway/internal/config"
	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	"github.com/couchcryptid/aq-forecast-gateway/internal/observability"
	"github.com/couchcryptid/aq-forecast-gateway/internal/pipeline"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	catalog, err := domain.NewCatalog(cfg.Sites)
	if err != nil {
		logger.Error("invalid site catalog", "error", err)
		os.Exit(1)
	}

	client := predictapi.NewClient(cfg.PredictAPIURL, cfg.PredictAPITimeout, metrics, logger)
	models := predictapi.NewCachedModelCatalog(client, cfg.ModelCacheSize, metrics)
	logger.Info("prediction api configured", "url", cfg.PredictAPIURL, "timeout", cfg.PredictAPITimeout)

	// Result publishing is feature-flagged via PUBLISH_ENABLED / KAFKA_BROKERS.
	var (
		publisher pipeline.ResultPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		metrics.PublishEnabled.Set(1)
		logger.Info("result publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("result publishing disabled")
	}

	sessions := pipeline.NewSessions(cfg.SessionCacheSize)
	forecaster := pipeline.NewForecaster(client, catalog, sessions, publisher, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:           cfg.HTTPAddr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, forecaster, models, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start live refresher (optional).
	refreshDone := make(chan struct{})
	if cfg.LiveRefreshSchedule != "" {
		refresher, err := pipeline.NewLiveRefresher(forecaster, cfg.LiveRefreshSchedule, logger, metrics)
		if err != nil {
			logger.Error("invalid live refresh schedule", "error", err)
			os.Exit(1)
		}
		go func() {
			defer close(refreshDone)
			if err := refresher.Run(ctx); err != nil {
				logger.Error("live refresher error", "error", err)
			}
		}()
	} else {
		close(refreshDone)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-refreshDone:
	case <-shutdownCtx.Done():
		logger.Warn("live refresher did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
