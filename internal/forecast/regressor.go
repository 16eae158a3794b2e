package forecast

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// Model tags persisted with every forecast point.
const (
	ModelLinear = domain.ModelLinearRegression
	ModelForest = domain.ModelRandomForest
)

var errEmptyTrainingSet = errors.New("empty training set")

// Regressor is a single-output regression model over FeatureVector.Values.
type Regressor interface {
	// Name returns the tag stored alongside the model's forecasts
	Name() string

	// Fit trains the model. features[i] and target[i] describe the same row.
	Fit(features [][]float64, target []float64) error

	// Predict returns the model's estimate for a single feature row.
	Predict(features []float64) float64
}

// Score evaluates a fitted regressor against held-out rows.
func Score(model Regressor, features [][]float64, target []float64) domain.ModelMetrics {
	predicted := make([]float64, len(features))
	for i, row := range features {
		predicted[i] = model.Predict(row)
	}
	return scorePredictions(target, predicted)
}

func scorePredictions(actual, predicted []float64) domain.ModelMetrics {
	if len(actual) == 0 {
		return domain.ModelMetrics{}
	}

	n := float64(len(actual))
	var sqErr, absErr float64
	for i := range actual {
		diff := actual[i] - predicted[i]
		sqErr += diff * diff
		absErr += math.Abs(diff)
	}

	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, v := range actual {
		ssTot += (v - mean) * (v - mean)
	}

	// Constant targets have no variance to explain: a perfect fit scores 1, anything else 0.
	r2 := 0.0
	switch {
	case ssTot > 0:
		r2 = 1 - sqErr/ssTot
	case sqErr == 0:
		r2 = 1
	}

	return domain.ModelMetrics{
		RMSE: math.Sqrt(sqErr / n),
		MAE:  absErr / n,
		R2:   r2,
	}
}
