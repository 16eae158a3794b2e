package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearRegressionRecoversPlane(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 30; i++ {
		a, b := float64(i), float64((i*7)%5)
		// third column is constant and fourth duplicates the first
		x = append(x, []float64{a, b, 1, a})
		y = append(y, 3+2*a-1.5*b)
	}

	m := NewLinearRegression()
	require.NoError(t, m.Fit(x, y))

	assert.InDelta(t, 3+2*40-1.5*2, m.Predict([]float64{40, 2, 1, 40}), 1e-6)
	assert.Equal(t, ModelLinear, m.Name())
}

func TestLinearRegressionRejectsEmptyInput(t *testing.T) {
	assert.Error(t, NewLinearRegression().Fit(nil, nil))
}

func TestRandomForestIsDeterministicForSeed(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		v := float64(i)
		x = append(x, []float64{v, float64(i % 7)})
		if i < 20 {
			y = append(y, 2)
		} else {
			y = append(y, 9)
		}
	}

	cfg := ForestConfig{Trees: 25, MaxDepth: 4, Seed: 42}
	a, b := NewRandomForest(cfg), NewRandomForest(cfg)
	require.NoError(t, a.Fit(x, y))
	require.NoError(t, b.Fit(x, y))

	for _, probe := range [][]float64{{0, 0}, {19, 5}, {25, 4}, {39, 6}} {
		assert.Equal(t, a.Predict(probe), b.Predict(probe))
	}
	assert.InDelta(t, 2, a.Predict([]float64{3, 3}), 0.5)
	assert.InDelta(t, 9, a.Predict([]float64{35, 0}), 0.5)
}

func TestRandomForestAppliesDefaults(t *testing.T) {
	f := NewRandomForest(ForestConfig{})
	assert.Equal(t, DefaultForestConfig().Trees, f.cfg.Trees)
	assert.Equal(t, 10, f.cfg.MaxDepth)
	assert.Equal(t, 0.0, f.Predict([]float64{1}), "unfitted forest")
}

func TestScorePredictions(t *testing.T) {
	m := scorePredictions([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 6})
	assert.InDelta(t, 1.0, m.RMSE, 1e-12)
	assert.InDelta(t, 0.5, m.MAE, 1e-12)
	assert.InDelta(t, 1-4.0/5.0, m.R2, 1e-12)

	constant := scorePredictions([]float64{3, 3, 3}, []float64{3, 3, 3})
	assert.Equal(t, 1.0, constant.R2)

	off := scorePredictions([]float64{3, 3}, []float64{2, 4})
	assert.Equal(t, 0.0, off.R2)
}
