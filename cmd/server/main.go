package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demand-forecast/internal/api"
	"github.com/andresuchdata/demand-forecast/internal/cache"
	"github.com/andresuchdata/demand-forecast/internal/config"
	"github.com/andresuchdata/demand-forecast/internal/metrics"
	"github.com/andresuchdata/demand-forecast/internal/pipeline"
	"github.com/andresuchdata/demand-forecast/internal/repository/postgres"
	"github.com/andresuchdata/demand-forecast/internal/service"
	"github.com/andresuchdata/demand-forecast/internal/storage"
	"github.com/andresuchdata/demand-forecast/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Configure(cfg.LogFormat, cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Forecast cache unavailable, continuing without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	reports, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize report storage")
	}

	// Initialize repositories and pipeline
	pcfg := pipeline.FromConfig(cfg.Forecast, cfg.Storage)
	orders := postgres.NewOrderRepository(db)
	products := postgres.NewProductRepository(db)
	store := postgres.NewForecastRepository(db)
	reg := metrics.NewRegistry()

	runner := pipeline.NewRunner(pcfg, orders, products, store, forecastCache)
	orchestrator := pipeline.NewOrchestrator(pcfg, runner, products, postgres.NewRunRepository(db), reports, reg)

	// Initialize services
	forecastService := service.NewForecastService(service.Deps{
		Products:    products,
		Orders:      orders,
		Store:       store,
		Cache:       forecastCache,
		Runner:      runner,
		Batch:       orchestrator,
		HistoryDays: pcfg.HistoryDays,
	})

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{Forecasts: forecastService}, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        reg.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
