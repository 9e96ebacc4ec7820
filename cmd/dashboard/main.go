package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/district-stress-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/district-stress-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/district-stress-dashboard/internal/config"
	"github.com/couchcryptid/district-stress-dashboard/internal/dashboard"
	"github.com/couchcryptid/district-stress-dashboard/internal/dataset"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
	"github.com/couchcryptid/district-stress-dashboard/internal/observability"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	normalizer := domain.NewRegionNormalizer(cfg.RegionCorrections)
	store := dataset.NewStore(dataset.NewFileLoader(cfg.DataPath, normalizer), logger, metrics)
	if _, err := store.Load(ctx); err != nil {
		logger.Error("failed to load dataset", "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}

	svc := dashboard.NewService(store, cfg.Policy, cfg.ViewCacheSize, metrics, logger)

	// Order publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher httpadapter.OrderPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, metrics, logger)
		publisher = kafkaPublisher
		logger.Info("order publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaOrdersTopic)
	} else {
		logger.Info("order publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, svc, publisher, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start dataset reloader.
	if cfg.ReloadInterval > 0 {
		reloader := dataset.NewReloader(store, cfg.ReloadInterval, nil, logger)
		go func() {
			if err := reloader.Run(ctx); err != nil {
				logger.Error("reloader error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
