package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-forecast/internal/cache"
	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/forecast"
	"github.com/andresuchdata/demand-forecast/internal/repository"
)

// ProductRunner executes the forecasting pipeline for a single product.
type ProductRunner interface {
	RunProduct(ctx context.Context, productID int64) domain.RunOutcome
}

// Runner runs extract, engineer, train, forecast, alert and persist for one
// product, in that order and without internal concurrency.
type Runner struct {
	extractor   *forecast.HistoryExtractor
	trainer     *forecast.Trainer
	forecaster  *forecast.Forecaster
	store       repository.ForecastRepository
	cache       cache.ForecastCache
	historyDays int
}

// NewRunner wires a Runner. A nil cache is replaced by the noop cache.
func NewRunner(
	cfg Config,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	store repository.ForecastRepository,
	c cache.ForecastCache,
) *Runner {
	if c == nil {
		c = cache.NewNoopForecastCache()
	}
	return &Runner{
		extractor:   forecast.NewHistoryExtractor(orders, products),
		trainer:     forecast.NewTrainer(cfg.Trainer),
		forecaster:  forecast.NewForecaster(cfg.Forecaster),
		store:       store,
		cache:       c,
		historyDays: cfg.HistoryDays,
	}
}

// WithClock overrides the reference time used for the observation window.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.extractor.WithClock(now)
	return r
}

// RunProduct never returns an error: failures are folded into the outcome.
func (r *Runner) RunProduct(ctx context.Context, productID int64) domain.RunOutcome {
	start := time.Now()
	outcome, err := r.runProduct(ctx, productID)
	outcome.ProductID = productID
	outcome.Duration = time.Since(start)

	switch {
	case errors.Is(err, domain.ErrNoSalesHistory):
		outcome.Status = domain.OutcomeSkippedNoSales
		log.Info().Int64("product_id", productID).Msg("no sales in observation window, skipping")
	case err != nil:
		outcome.Status = domain.OutcomeFailed
		outcome.Error = err.Error()
		log.Error().Err(err).Int64("product_id", productID).Msg("forecast failed")
	default:
		outcome.Status = domain.OutcomeOK
		selected := outcome.Metrics.Selected()
		ev := log.Info().
			Int64("product_id", productID).
			Str("model", outcome.ModelUsed).
			Float64("rmse", selected.RMSE).
			Float64("mae", selected.MAE).
			Float64("r2", selected.R2).
			Dur("took", outcome.Duration)
		if outcome.Alert != nil {
			ev = ev.Str("alert", string(outcome.Alert.AlertType))
		}
		ev.Msg("forecast stored")
	}

	return outcome
}

func (r *Runner) runProduct(ctx context.Context, productID int64) (domain.RunOutcome, error) {
	var outcome domain.RunOutcome

	product, series, err := r.extractor.Extract(ctx, productID, r.historyDays)
	if err != nil {
		return outcome, err
	}
	if !forecast.HasSales(series) {
		return outcome, domain.ErrNoSalesHistory
	}

	rows := forecast.EngineerFeatures(series)
	model, err := r.trainer.Train(rows)
	if err != nil {
		return outcome, fmt.Errorf("train product %d: %w", productID, err)
	}
	outcome.ModelUsed = model.Tag
	outcome.Metrics = &model.Metrics

	points, err := r.forecaster.Project(productID, rows, model)
	if err != nil {
		return outcome, fmt.Errorf("project product %d: %w", productID, err)
	}

	if err := r.store.ReplaceForecasts(ctx, productID, points); err != nil {
		return outcome, fmt.Errorf("store forecasts for product %d: %w", productID, err)
	}

	assessment := forecast.AssessStock(*product, points)
	if err := r.store.ReplaceActiveAlert(ctx, productID, assessment.Alert); err != nil {
		return outcome, fmt.Errorf("store alert for product %d: %w", productID, err)
	}
	outcome.Alert = assessment.Alert

	if err := r.cache.InvalidateProduct(ctx, productID); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate forecast cache")
	}

	return outcome, nil
}
