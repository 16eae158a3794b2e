package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

func flatForecast(n int, demand float64) []domain.ForecastPoint {
	first := day(2024, 6, 1)
	points := make([]domain.ForecastPoint, n)
	for i := range points {
		points[i] = domain.ForecastPoint{ProductID: 1, Date: first.AddDate(0, 0, i), PredictedDemand: demand}
	}
	return points
}

func TestClassifyStockoutBoundaries(t *testing.T) {
	cases := []struct {
		days  float64
		want  domain.AlertType
		alert bool
	}{
		{0, domain.AlertCritical, true},
		{6.9, domain.AlertCritical, true},
		{7.0, domain.AlertWarning, true},
		{13.99, domain.AlertWarning, true},
		{14.0, domain.AlertInfo, true},
		{29.9, domain.AlertInfo, true},
		{30.0, "", false},
		{NoStockoutRisk, "", false},
	}

	for _, c := range cases {
		got, ok := ClassifyStockout(c.days)
		assert.Equal(t, c.alert, ok, "days %v", c.days)
		assert.Equal(t, c.want, got, "days %v", c.days)
	}
}

func TestAssessStockCriticalScenario(t *testing.T) {
	product := domain.Product{ID: 1, Name: "Espresso Beans", StockQuantity: 5}

	a := AssessStock(product, flatForecast(30, 2))

	assert.Equal(t, 60.0, a.Demand30)
	assert.Equal(t, 2.0, a.AvgDailyDemand)
	assert.InDelta(t, 2.5, a.DaysUntilStockout, 1e-12)
	require.NotNil(t, a.Alert)
	assert.Equal(t, domain.AlertCritical, a.Alert.AlertType)
	assert.Equal(t, 60, a.Alert.RecommendedOrderQty)
	assert.Equal(t, 2, a.Alert.DaysUntilStockout)
	assert.Equal(t, domain.AlertStatusActive, a.Alert.Status)
	assert.Equal(t, "CRITICAL: Espresso Beans will run out in 2 days!", a.Alert.Message)
}

func TestAssessStockSumsWindows(t *testing.T) {
	points := flatForecast(30, 1)
	// shuffle order to make sure sums follow dates, not slice order
	points[0], points[29] = points[29], points[0]
	points[0].PredictedDemand = 10

	a := AssessStock(domain.Product{ID: 1, StockQuantity: 1000}, points)
	assert.Equal(t, 7.0, a.Demand7)
	assert.Equal(t, 14.0, a.Demand14)
	assert.Equal(t, 39.0, a.Demand30)
	assert.Nil(t, a.Alert)
}

func TestAssessStockWarningAndInfo(t *testing.T) {
	warn := AssessStock(domain.Product{ID: 2, Name: "Filter", StockQuantity: 20}, flatForecast(30, 2))
	require.NotNil(t, warn.Alert)
	assert.Equal(t, domain.AlertWarning, warn.Alert.AlertType)
	assert.Equal(t, "WARNING: Filter stock low. 10 days remaining.", warn.Alert.Message)

	info := AssessStock(domain.Product{ID: 3, Name: "Kettle", StockQuantity: 50}, flatForecast(30, 2))
	require.NotNil(t, info.Alert)
	assert.Equal(t, domain.AlertInfo, info.Alert.AlertType)
	assert.Equal(t, 25, info.Alert.DaysUntilStockout)
	assert.Equal(t, "INFO: Kettle - Consider reordering soon.", info.Alert.Message)

	none := AssessStock(domain.Product{ID: 4, StockQuantity: 60}, flatForecast(30, 2))
	assert.Nil(t, none.Alert, "exactly 30 days of cover")
}

func TestAssessStockWithoutDemand(t *testing.T) {
	a := AssessStock(domain.Product{ID: 1, StockQuantity: 3}, nil)
	assert.Equal(t, 0.0, a.AvgDailyDemand)
	assert.Equal(t, NoStockoutRisk, a.DaysUntilStockout)
	assert.Nil(t, a.Alert)

	zero := AssessStock(domain.Product{ID: 1, StockQuantity: 0}, flatForecast(30, 0))
	assert.Nil(t, zero.Alert)
}

func TestAssessStockShortHorizonStillAveragesOverThirtyDays(t *testing.T) {
	a := AssessStock(domain.Product{ID: 1, StockQuantity: 10}, flatForecast(15, 2))
	assert.Equal(t, 30.0, a.Demand30)
	assert.Equal(t, 1.0, a.AvgDailyDemand)
	require.NotNil(t, a.Alert)
	assert.Equal(t, domain.AlertWarning, a.Alert.AlertType)
}
