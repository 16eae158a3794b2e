package forecast

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// NoStockoutRisk is reported as days until stockout when there is no projected demand.
const NoStockoutRisk = 999.0

// Stockout thresholds in days; the first one exceeded by days_until_stockout wins.
const (
	criticalDays = 7
	warningDays  = 14
	infoDays     = 30
)

// StockAssessment is the demand aggregation behind an alert decision.
type StockAssessment struct {
	Demand7           float64
	Demand14          float64
	Demand30          float64
	AvgDailyDemand    float64
	DaysUntilStockout float64

	// Alert is nil when the product is not at risk within 30 days.
	Alert *domain.StockAlert
}

// AssessStock compares projected demand against current stock.
func AssessStock(product domain.Product, points []domain.ForecastPoint) StockAssessment {
	ordered := append([]domain.ForecastPoint(nil), points...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	a := StockAssessment{
		Demand7:  sumDemand(ordered, 7),
		Demand14: sumDemand(ordered, 14),
		Demand30: sumDemand(ordered, 30),
	}
	if len(ordered) > 0 {
		a.AvgDailyDemand = a.Demand30 / 30
	}

	a.DaysUntilStockout = NoStockoutRisk
	if a.AvgDailyDemand > 0 {
		a.DaysUntilStockout = float64(product.StockQuantity) / a.AvgDailyDemand
	}

	alertType, ok := ClassifyStockout(a.DaysUntilStockout)
	if !ok {
		return a
	}

	days := int(a.DaysUntilStockout)
	if days < 0 {
		days = 0
	}
	a.Alert = &domain.StockAlert{
		ProductID:           product.ID,
		AlertType:           alertType,
		Message:             alertMessage(alertType, product.Name, days),
		RecommendedOrderQty: int(a.Demand30),
		DaysUntilStockout:   days,
		Status:              domain.AlertStatusActive,
	}
	return a
}

// ClassifyStockout maps days until stockout to an alert type. The second
// return value is false when no alert should be raised.
func ClassifyStockout(days float64) (domain.AlertType, bool) {
	switch {
	case days < criticalDays:
		return domain.AlertCritical, true
	case days < warningDays:
		return domain.AlertWarning, true
	case days < infoDays:
		return domain.AlertInfo, true
	default:
		return "", false
	}
}

func alertMessage(t domain.AlertType, name string, days int) string {
	switch t {
	case domain.AlertCritical:
		return fmt.Sprintf("CRITICAL: %s will run out in %d days!", name, days)
	case domain.AlertWarning:
		return fmt.Sprintf("WARNING: %s stock low. %d days remaining.", name, days)
	default:
		return fmt.Sprintf("INFO: %s - Consider reordering soon.", name)
	}
}

func sumDemand(points []domain.ForecastPoint, n int) float64 {
	if n > len(points) {
		n = len(points)
	}
	var total float64
	for _, p := range points[:n] {
		total += p.PredictedDemand
	}
	return total
}
