package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// FeatureNames lists the regression inputs in the order returned by FeatureVector.Values.
var FeatureNames = []string{
	"day_of_week",
	"month",
	"is_weekend",
	"day_of_month",
	"sales_lag_7",
	"sales_lag_14",
	"sales_lag_30",
	"rolling_mean_7",
	"rolling_mean_14",
	"rolling_std_7",
	"trend",
}

// Longest lag used by the feature set. Rows before it carry zero-filled lags.
const maxLag = 30

// FeatureVector is the engineered feature record for a single day.
type FeatureVector struct {
	Date  time.Time
	Sales float64

	DayOfWeek  int // 0 = Monday
	Month      int
	IsWeekend  bool
	DayOfMonth int

	Lag7  float64
	Lag14 float64
	Lag30 float64

	RollingMean7  float64
	RollingMean14 float64
	RollingStd7   float64

	Trend int
}

// Values flattens the vector into regression inputs.
func (f FeatureVector) Values() []float64 {
	weekend := 0.0
	if f.IsWeekend {
		weekend = 1
	}
	return []float64{
		float64(f.DayOfWeek),
		float64(f.Month),
		weekend,
		float64(f.DayOfMonth),
		f.Lag7,
		f.Lag14,
		f.Lag30,
		f.RollingMean7,
		f.RollingMean14,
		f.RollingStd7,
		float64(f.Trend),
	}
}

// EngineerFeatures derives one FeatureVector per SalesDay. Features for day i
// only read sales at or before i.
func EngineerFeatures(series []domain.SalesDay) []FeatureVector {
	sales := make([]float64, len(series))
	for i, day := range series {
		sales[i] = float64(day.QuantitySold)
	}

	rows := make([]FeatureVector, len(series))
	for i, day := range series {
		rows[i] = calendarFeatures(day.Date)
		rows[i].Sales = sales[i]
		rows[i].Lag7 = lag(sales, i, 7)
		rows[i].Lag14 = lag(sales, i, 14)
		rows[i].Lag30 = lag(sales, i, 30)
		rows[i].RollingMean7, rows[i].RollingStd7 = trailingMeanStd(sales, i, 7)
		rows[i].RollingMean14, _ = trailingMeanStd(sales, i, 14)
		rows[i].Trend = i
	}

	return rows
}

func calendarFeatures(date time.Time) FeatureVector {
	dow := (int(date.Weekday()) + 6) % 7
	return FeatureVector{
		Date:       date,
		DayOfWeek:  dow,
		Month:      int(date.Month()),
		IsWeekend:  dow >= 5,
		DayOfMonth: date.Day(),
	}
}

func lag(values []float64, i, n int) float64 {
	if i-n < 0 {
		return 0
	}
	return values[i-n]
}

// trailingMeanStd returns the mean and population standard deviation over the
// window ending at i, clamped to the available history. A single-sample window
// has a deviation of 0.
func trailingMeanStd(values []float64, i, window int) (float64, float64) {
	start := i - window + 1
	if start < 0 {
		start = 0
	}
	n := float64(i - start + 1)

	var sum float64
	for _, v := range values[start : i+1] {
		sum += v
	}
	mean := sum / n

	if n < 2 {
		return mean, 0
	}

	var sq float64
	for _, v := range values[start : i+1] {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / n)
}
