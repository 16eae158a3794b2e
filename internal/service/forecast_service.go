package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-forecast/internal/cache"
	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/forecast"
	"github.com/andresuchdata/demand-forecast/internal/pipeline"
	"github.com/andresuchdata/demand-forecast/internal/repository"
)

// BatchRunner runs the pipeline across the catalog.
type BatchRunner interface {
	RunForAllProducts(ctx context.Context) (*pipeline.BatchResult, error)
}

// ForecastService serves stored forecasts and alerts and triggers runs.
// Only one run, batch or single product, executes at a time.
type ForecastService struct {
	products repository.ProductRepository
	store    repository.ForecastRepository
	history  *forecast.HistoryExtractor
	cache    cache.ForecastCache
	runner   pipeline.ProductRunner
	batch    BatchRunner

	historyDays int
	running     sync.Mutex
}

type Deps struct {
	Products    repository.ProductRepository
	Orders      repository.OrderRepository
	Store       repository.ForecastRepository
	Cache       cache.ForecastCache
	Runner      pipeline.ProductRunner
	Batch       BatchRunner
	HistoryDays int
}

func NewForecastService(deps Deps) *ForecastService {
	c := deps.Cache
	if c == nil {
		c = cache.NewNoopForecastCache()
	}
	return &ForecastService{
		products:    deps.Products,
		store:       deps.Store,
		history:     forecast.NewHistoryExtractor(deps.Orders, deps.Products),
		cache:       c,
		runner:      deps.Runner,
		batch:       deps.Batch,
		historyDays: deps.HistoryDays,
	}
}

// Forecasts returns the stored points for a product, ordered by date.
func (s *ForecastService) Forecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, error) {
	if points, ok, err := s.cache.GetForecasts(ctx, productID); err == nil && ok {
		return points, nil
	} else if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast: cache get failed")
	}

	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	points, err := s.store.GetForecasts(ctx, productID)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = make([]domain.ForecastPoint, 0)
	}

	if err := s.cache.SetForecasts(ctx, productID, points); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast: cache set failed")
	}

	return points, nil
}

// Predictions summarizes the stored forecast of every product that has one.
func (s *ForecastService) Predictions(ctx context.Context) ([]domain.ProductForecast, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ProductForecast, 0, len(products))
	for _, p := range products {
		points, err := s.Forecasts(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("forecasts for product %d: %w", p.ID, err)
		}
		if len(points) == 0 {
			continue
		}

		a := forecast.AssessStock(p, points)
		results = append(results, domain.ProductForecast{
			ProductID:         p.ID,
			ProductName:       p.Name,
			StockQuantity:     p.StockQuantity,
			Demand7:           a.Demand7,
			Demand14:          a.Demand14,
			Demand30:          a.Demand30,
			DaysUntilStockout: a.DaysUntilStockout,
			ModelUsed:         points[0].ModelUsed,
			Predictions:       points,
		})
	}

	return results, nil
}

// Trends returns the observed daily sales for the product over the last days days.
func (s *ForecastService) Trends(ctx context.Context, productID int64, days int) (*domain.ProductTrend, error) {
	if days <= 0 {
		days = s.historyDays
	}
	if days <= 0 {
		days = forecast.DefaultHistoryDays
	}

	product, series, err := s.history.Extract(ctx, productID, days)
	if err != nil {
		return nil, err
	}

	return &domain.ProductTrend{
		ProductID:   product.ID,
		ProductName: product.Name,
		Days:        days,
		Trends:      series,
	}, nil
}

// Alerts lists alerts in the given status, most urgent first.
func (s *ForecastService) Alerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, error) {
	if alerts, ok, err := s.cache.GetAlerts(ctx, status); err == nil && ok {
		return alerts, nil
	} else if err != nil {
		log.Warn().Err(err).Str("status", string(status)).Msg("forecast: cache get alerts failed")
	}

	alerts, err := s.store.ListAlerts(ctx, status)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = make([]domain.StockAlert, 0)
	}

	if err := s.cache.SetAlerts(ctx, status, alerts); err != nil {
		log.Warn().Err(err).Str("status", string(status)).Msg("forecast: cache set alerts failed")
	}

	return alerts, nil
}

func (s *ForecastService) ActiveAlerts(ctx context.Context) ([]domain.StockAlert, error) {
	return s.Alerts(ctx, domain.AlertStatusActive)
}

func (s *ForecastService) DismissAlert(ctx context.Context, alertID int64) error {
	return s.setAlertStatus(ctx, alertID, domain.AlertStatusDismissed)
}

func (s *ForecastService) ResolveAlert(ctx context.Context, alertID int64) error {
	return s.setAlertStatus(ctx, alertID, domain.AlertStatusResolved)
}

func (s *ForecastService) setAlertStatus(ctx context.Context, alertID int64, status domain.AlertStatus) error {
	if err := s.store.UpdateAlertStatus(ctx, alertID, status); err != nil {
		return err
	}
	if err := s.cache.InvalidateAlerts(ctx); err != nil {
		log.Warn().Err(err).Int64("alert_id", alertID).Msg("forecast: cache invalidate alerts failed")
	}
	return nil
}

// RunAll forecasts every product. It fails fast with domain.ErrRunInProgress
// when another run holds the lock.
func (s *ForecastService) RunAll(ctx context.Context) (*pipeline.BatchResult, error) {
	if !s.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer s.running.Unlock()

	return s.batch.RunForAllProducts(ctx)
}

// RunProduct forecasts a single product. Unknown ids fail with domain.ErrProductNotFound.
func (s *ForecastService) RunProduct(ctx context.Context, productID int64) (*domain.RunOutcome, error) {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	if !s.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer s.running.Unlock()

	outcome := s.runner.RunProduct(ctx, productID)
	return &outcome, nil
}
