package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demand-forecast/internal/cache"
	"github.com/andresuchdata/demand-forecast/internal/config"
	"github.com/andresuchdata/demand-forecast/internal/metrics"
	"github.com/andresuchdata/demand-forecast/internal/pipeline"
	"github.com/andresuchdata/demand-forecast/internal/repository/postgres"
	"github.com/andresuchdata/demand-forecast/internal/storage"
	"github.com/andresuchdata/demand-forecast/pkg/logger"
)

type components struct {
	cfg          *config.Config
	db           *postgres.DB
	reports      storage.ObjectStorage
	metrics      *metrics.Registry
	runner       *pipeline.Runner
	orchestrator *pipeline.Orchestrator
}

func (c *components) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
}

func loadConfig(c *cli.Context) *config.Config {
	cfg := config.Load()
	if url := c.String("db-url"); url != "" {
		cfg.Database.URL = url
		cfg.Database.Driver = "pgx"
	}
	return cfg
}

func setupStorage(c *cli.Context) (*components, error) {
	cfg := loadConfig(c)
	reports, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return &components{cfg: cfg, reports: reports}, nil
}

func setup(c *cli.Context) (*components, error) {
	deps, err := setupStorage(c)
	if err != nil {
		return nil, err
	}
	cfg := deps.cfg

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.db = db

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	pcfg := pipeline.FromConfig(cfg.Forecast, cfg.Storage)
	if workers := c.Int("workers"); workers > 0 {
		pcfg.Workers = workers
	}

	products := postgres.NewProductRepository(db)
	deps.metrics = metrics.NewRegistry()
	deps.runner = pipeline.NewRunner(
		pcfg,
		postgres.NewOrderRepository(db),
		products,
		postgres.NewForecastRepository(db),
		forecastCache,
	)
	deps.orchestrator = pipeline.NewOrchestrator(
		pcfg,
		deps.runner,
		products,
		postgres.NewRunRepository(db),
		deps.reports,
		deps.metrics,
	)
	return deps, nil
}

func startMetricsServer(addr string, reg *metrics.Registry) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}

func shutdownMetricsServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("metrics server shutdown")
	}
}
