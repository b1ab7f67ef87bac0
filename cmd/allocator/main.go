package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/water-allocation-engine/internal/adapter/dataset"
	httpadapter "github.com/couchcryptid/water-allocation-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/water-allocation-engine/internal/adapter/kafka"
	"github.com/couchcryptid/water-allocation-engine/internal/adapter/postgres"
	"github.com/couchcryptid/water-allocation-engine/internal/config"
	"github.com/couchcryptid/water-allocation-engine/internal/domain"
	"github.com/couchcryptid/water-allocation-engine/internal/engine"
	"github.com/couchcryptid/water-allocation-engine/internal/estimator"
	"github.com/couchcryptid/water-allocation-engine/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	est, err := estimator.Select(cfg.ModelFile, cfg.ScalerFile, cfg.FallbackSeed, cfg.FallbackSamples, logger)
	if err != nil {
		logger.Error("failed to initialize stress estimator", "error", err)
		os.Exit(1)
	}

	eng := engine.New(est, engineParams(cfg), logger, metrics, cfg.PlanCacheSize)

	// Optional plan publisher (feature-flagged via KAFKA_ENABLED).
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaPlanTopic, logger)
		logger.Info("plan publishing enabled", "topic", cfg.KafkaPlanTopic)
	}

	// Optional plan history store (feature-flagged via POSTGRES_ENABLED).
	var store *postgres.Store
	if cfg.PostgresEnabled {
		store, err = postgres.New(cfg.PostgresDSN)
		if err != nil {
			logger.Error("failed to connect plan store", "error", err)
			os.Exit(1)
		}
		logger.Info("plan history store enabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Build the initial plan and keep it fresh if a refresh interval is set.
	rebuild := func() {
		rows, err := dataset.ReadFile(cfg.DatasetFile)
		if err != nil {
			logger.Error("dataset load failed", "file", cfg.DatasetFile, "error", err)
			return
		}
		plan, err := eng.BuildPlan(ctx, rows)
		if err != nil {
			logger.Error("plan build failed", "error", err)
			return
		}
		distribute(ctx, plan, publisher, store, metrics, logger)
	}

	rebuild()
	if cfg.DatasetInterval > 0 {
		go refreshLoop(ctx, cfg.DatasetInterval, rebuild, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("plan store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// distribute forwards a freshly built plan to the optional sinks. Sink
// failures are logged and counted, never fatal: the plan is still served
// over HTTP.
func distribute(ctx context.Context, plan *engine.Plan, publisher *kafkaadapter.Publisher, store *postgres.Store, metrics *observability.Metrics, logger *slog.Logger) {
	if publisher != nil {
		if err := publisher.PublishPlan(ctx, plan); err != nil {
			metrics.PlanPublishErrors.Inc()
			logger.Error("plan publish failed", "fingerprint", plan.Fingerprint, "error", err)
		} else {
			metrics.PlansPublished.Inc()
		}
	}
	if store != nil {
		if err := store.SavePlan(ctx, plan); err != nil {
			logger.Error("plan save failed", "fingerprint", plan.Fingerprint, "error", err)
		}
	}
}

func refreshLoop(ctx context.Context, interval time.Duration, rebuild func(), logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("dataset refresh loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rebuild()
		}
	}
}

func engineParams(cfg *config.Config) engine.Params {
	p := engine.Params{
		PerCapitaDailyLiters:  cfg.PerCapitaDailyLiters,
		HorizonDays:           cfg.HorizonDays,
		VehicleCapacityLiters: cfg.VehicleCapacityLiters,
		Weights: domain.PriorityWeights{
			Stress:     cfg.StressWeight,
			Population: cfg.PopulationWeight,
		},
		Thresholds: domain.StressThresholds{
			Low:      cfg.StressLowThreshold,
			Moderate: cfg.StressModerateThreshold,
			High:     cfg.StressHighThreshold,
		},
		RouteTopN: cfg.RouteTopN,
	}
	if cfg.DepotLat != nil && cfg.DepotLon != nil {
		p.Depot = &domain.Geo{Lat: *cfg.DepotLat, Lon: *cfg.DepotLon}
	}
	return p
}
