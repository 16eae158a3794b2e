package forecast

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// TrainerConfig controls how the feature rows are split and which candidates compete.
type TrainerConfig struct {
	MinRows       int     // Minimum usable feature rows required to train
	TestFraction  float64 // Share of the most recent rows held out for scoring
	DropLagWarmup bool    // Drop leading rows whose lags are zero-filled, when enough rows remain
	Forest        ForestConfig
}

// DefaultTrainerConfig returns sensible defaults
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		MinRows:       20,
		TestFraction:  0.2,
		DropLagWarmup: true,
		Forest:        DefaultForestConfig(),
	}
}

// TrainedModel is the selected regressor plus the metrics of every candidate.
type TrainedModel struct {
	Regressor Regressor
	Tag       string
	Metrics   domain.TrainingMetrics
}

// Trainer fits the linear and ensemble candidates and keeps the better one.
type Trainer struct {
	cfg        TrainerConfig
	candidates func() []Regressor
}

func NewTrainer(cfg TrainerConfig) *Trainer {
	def := DefaultTrainerConfig()
	if cfg.MinRows <= 0 {
		cfg.MinRows = def.MinRows
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = def.TestFraction
	}

	t := &Trainer{cfg: cfg}
	// Linear goes first so it wins RMSE ties.
	t.candidates = func() []Regressor {
		return []Regressor{NewLinearRegression(), NewRandomForest(cfg.Forest)}
	}
	return t
}

// Train selects the candidate with the lowest hold-out RMSE.
func (t *Trainer) Train(rows []FeatureVector) (*TrainedModel, error) {
	usable := t.usableRows(rows)
	if len(usable) < t.cfg.MinRows {
		return nil, &domain.InsufficientDataError{Rows: len(usable), Required: t.cfg.MinRows}
	}

	features := make([][]float64, len(usable))
	target := make([]float64, len(usable))
	for i, row := range usable {
		features[i] = row.Values()
		target[i] = row.Sales
	}

	split := trainSize(len(usable), t.cfg.TestFraction)
	trainX, testX := features[:split], features[split:]
	trainY, testY := target[:split], target[split:]

	var (
		best        Regressor
		bestMetrics domain.ModelMetrics
		result      = &TrainedModel{}
	)
	for _, candidate := range t.candidates() {
		if err := candidate.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("fit %s: %w", candidate.Name(), err)
		}
		metrics := Score(candidate, testX, testY)

		switch candidate.Name() {
		case ModelLinear:
			result.Metrics.Linear = metrics
		case ModelForest:
			result.Metrics.Forest = metrics
		}

		log.Debug().
			Str("model", candidate.Name()).
			Float64("rmse", metrics.RMSE).
			Float64("mae", metrics.MAE).
			Float64("r2", metrics.R2).
			Msg("candidate scored")

		if best == nil || metrics.RMSE < bestMetrics.RMSE {
			best = candidate
			bestMetrics = metrics
		}
	}

	result.Regressor = best
	result.Tag = best.Name()
	result.Metrics.BestModel = best.Name()
	return result, nil
}

// usableRows drops the lag warmup only if doing so still leaves MinRows rows.
func (t *Trainer) usableRows(rows []FeatureVector) []FeatureVector {
	if t.cfg.DropLagWarmup && len(rows)-maxLag >= t.cfg.MinRows {
		return rows[maxLag:]
	}
	return rows
}

// trainSize returns the number of leading rows used for fitting. The test tail
// gets ceil(n*testFraction) rows.
func trainSize(n int, testFraction float64) int {
	test := int(math.Ceil(float64(n) * testFraction))
	if test < 1 {
		test = 1
	}
	if test >= n {
		test = n - 1
	}
	return n - test
}
