package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agrowatch/pest-advisory-service/internal/adapter/alert"
	httpadapter "github.com/agrowatch/pest-advisory-service/internal/adapter/http"
	"github.com/agrowatch/pest-advisory-service/internal/adapter/locations"
	"github.com/agrowatch/pest-advisory-service/internal/adapter/model"
	"github.com/agrowatch/pest-advisory-service/internal/advisor"
	"github.com/agrowatch/pest-advisory-service/internal/config"
	"github.com/agrowatch/pest-advisory-service/internal/domain"
	"github.com/agrowatch/pest-advisory-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := newLocationStore(cfg, logger)
	if err != nil {
		logger.Error("failed to load locations", "source", cfg.LocationSource, "error", err)
		os.Exit(1)
	}

	if csvStore, ok := store.(*locations.CSVStore); ok {
		metrics.LocationsLoaded.Set(float64(csvStore.Len()))
	}

	registry, err := model.LoadRegistry(cfg.ModelDir, cfg.RemoteModelTimeout, logger)
	if err != nil {
		logger.Error("failed to load model artifacts", "dir", cfg.ModelDir, "error", err)
		os.Exit(1)
	}
	metrics.ModelsLoaded.Set(float64(registry.Len()))

	// SMS alerts are feature-flagged via ALERTS_ENABLED. When disabled the
	// alert payload only goes to the log, with the phone number masked.
	var sink advisor.NotificationSink
	var publisher *alert.Publisher
	if cfg.AlertsEnabled {
		publisher = alert.NewPublisher(cfg, logger)
		sink = publisher
		logger.Info("sms alerts enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	} else {
		sink = alert.NewLogSink(logger)
		logger.Info("sms alerts disabled, logging only")
	}

	scorer := domain.NewScorer(cfg.ScoreFallback, logger)
	policy := domain.NewPolicy(cfg.RiskThreshold)

	adv := advisor.New(store, registry, domain.SyntheticFeatureSource{}, scorer, policy, sink, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, adv, store, adv, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("alert publisher close error", "error", err)
		}
	}
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("location store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newLocationStore(cfg *config.Config, logger *slog.Logger) (advisor.LocationStore, error) {
	switch cfg.LocationSource {
	case config.LocationSourcePostgres:
		store, err := locations.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("location store ready", "source", "postgres")
		return store, nil
	default:
		store, err := locations.LoadCSV(cfg.LocationsPath)
		if err != nil {
			return nil, err
		}
		logger.Info("location store ready", "source", "csv", "path", cfg.LocationsPath, "villages", store.Len())
		return store, nil
	}
}
