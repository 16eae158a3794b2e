package forecast

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Relative singular value cutoff below which a direction is treated as rank deficient.
const rankTolerance = 1e-10

// LinearRegression is ordinary least squares with an intercept. Collinear or
// constant columns are handled by a minimum-norm SVD solve.
type LinearRegression struct {
	coef      []float64
	intercept float64
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (m *LinearRegression) Name() string {
	return ModelLinear
}

func (m *LinearRegression) Fit(features [][]float64, target []float64) error {
	n := len(features)
	if n == 0 || len(target) != n {
		return fmt.Errorf("linear regression: %w", errEmptyTrainingSet)
	}
	p := len(features[0])

	means := columnMeans(features)
	yMean := stat.Mean(target, nil)

	a := mat.NewDense(n, p, nil)
	b := mat.NewDense(n, 1, nil)
	for i, row := range features {
		for j, v := range row {
			a.Set(i, j, v-means[j])
		}
		b.Set(i, 0, target[i]-yMean)
	}

	m.coef = make([]float64, p)
	m.intercept = yMean

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return fmt.Errorf("linear regression: svd factorization failed")
	}
	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		return nil
	}

	var beta mat.Dense
	svd.SolveTo(&beta, b, rank)
	for j := 0; j < p; j++ {
		m.coef[j] = beta.At(j, 0)
		m.intercept -= m.coef[j] * means[j]
	}

	return nil
}

func (m *LinearRegression) Predict(features []float64) float64 {
	out := m.intercept
	for j, v := range features {
		if j < len(m.coef) {
			out += m.coef[j] * v
		}
	}
	return out
}

func columnMeans(features [][]float64) []float64 {
	p := len(features[0])
	means := make([]float64, p)
	col := make([]float64, len(features))
	for j := 0; j < p; j++ {
		for i, row := range features {
			col[i] = row[j]
		}
		means[j] = stat.Mean(col, nil)
	}
	return means
}
