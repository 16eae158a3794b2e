package forecast

import (
	"errors"
	"math"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// DefaultHorizonDays is the number of future days projected per run.
const DefaultHorizonDays = 30

var errEmptyHistory = errors.New("forecast: empty feature history")

// ForecasterConfig holds the horizon and the growth damping parameters.
type ForecasterConfig struct {
	HorizonDays      int
	GrowthMultiplier float64 // cap = max(GrowthMultiplier * historical peak, GrowthFloor)
	GrowthFloor      float64
}

func DefaultForecasterConfig() ForecasterConfig {
	return ForecasterConfig{
		HorizonDays:      DefaultHorizonDays,
		GrowthMultiplier: 1.8,
		GrowthFloor:      10,
	}
}

// Forecaster projects demand recursively, feeding earlier predictions back as lags.
type Forecaster struct {
	cfg ForecasterConfig
}

func NewForecaster(cfg ForecasterConfig) *Forecaster {
	def := DefaultForecasterConfig()
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = def.HorizonDays
	}
	if cfg.GrowthMultiplier <= 0 {
		cfg.GrowthMultiplier = def.GrowthMultiplier
	}
	if cfg.GrowthFloor <= 0 {
		cfg.GrowthFloor = def.GrowthFloor
	}
	return &Forecaster{cfg: cfg}
}

// GrowthCap returns the ceiling applied to every prediction for this history.
func (f *Forecaster) GrowthCap(history []FeatureVector) float64 {
	var peak float64
	for _, row := range history {
		peak = math.Max(peak, row.Sales)
	}
	return math.Max(f.cfg.GrowthMultiplier*peak, f.cfg.GrowthFloor)
}

// Project returns one point per day in (last observed date, last observed date + horizon].
//
// Rolling mean and std stay at their last observed values for the whole
// horizon; they are not recomputed from predictions. The confidence band uses
// that same fixed std on every day.
func (f *Forecaster) Project(productID int64, history []FeatureVector, model *TrainedModel) ([]domain.ForecastPoint, error) {
	if len(history) == 0 {
		return nil, errEmptyHistory
	}

	last := history[len(history)-1]
	limit := f.GrowthCap(history)
	std := last.RollingStd7

	buf := &demandBuffer{}
	points := make([]domain.ForecastPoint, 0, f.cfg.HorizonDays)

	for i := 1; i <= f.cfg.HorizonDays; i++ {
		row := calendarFeatures(last.Date.AddDate(0, 0, i))
		row.Lag7 = buf.lagOr(i, 7, last.Sales)
		row.Lag14 = buf.lagOr(i, 14, last.Lag7)
		row.Lag30 = buf.lagOr(i, 30, last.Lag14)
		row.RollingMean7 = last.RollingMean7
		row.RollingMean14 = last.RollingMean14
		row.RollingStd7 = last.RollingStd7
		row.Trend = last.Trend + i

		pred := clamp(round2(model.Regressor.Predict(row.Values())), 0, limit)
		buf.push(pred)

		points = append(points, domain.ForecastPoint{
			ProductID:       productID,
			Date:            row.Date,
			PredictedDemand: pred,
			ConfidenceLower: math.Max(0, round2(pred-std)),
			ConfidenceUpper: round2(pred + std),
			ModelUsed:       model.Tag,
		})
	}

	return points, nil
}

// demandBuffer holds the predictions made so far, indexable from the end.
type demandBuffer struct {
	values []float64
}

func (b *demandBuffer) push(v float64) {
	b.values = append(b.values, v)
}

// back returns the value pushed `offset` steps ago; back(1) is the latest.
func (b *demandBuffer) back(offset int) float64 {
	return b.values[len(b.values)-offset]
}

// lagOr returns the prediction made n steps before step, or seed while step is
// still inside the first n steps of the horizon.
func (b *demandBuffer) lagOr(step, n int, seed float64) float64 {
	if step <= n {
		return seed
	}
	return b.back(n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
