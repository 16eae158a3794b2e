package domain

import "time"

// Product is the subset of the catalog the forecasting pipeline needs.
type Product struct {
	ID            int64  `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	StockQuantity int    `json:"stock_quantity" db:"stock_quantity"`
}

// OrderLine is a single order item for a product, stamped with its parent order's time.
type OrderLine struct {
	OrderedAt time.Time `json:"ordered_at" db:"ordered_at"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// SalesDay is one calendar day of aggregated sales. Days without orders carry 0.
type SalesDay struct {
	Date         time.Time `json:"date"`
	QuantitySold int       `json:"quantity_sold"`
}

// ForecastPoint is a projected demand value for a single future day
type ForecastPoint struct {
	ID              int64     `json:"id,omitempty" db:"id"`
	ProductID       int64     `json:"product_id" db:"product_id"`
	Date            time.Time `json:"date" db:"forecast_date"`
	PredictedDemand float64   `json:"predicted_demand" db:"predicted_demand"`
	ConfidenceLower float64   `json:"confidence_lower" db:"confidence_lower"`
	ConfidenceUpper float64   `json:"confidence_upper" db:"confidence_upper"`
	ModelUsed       string    `json:"model_used" db:"model_used"`
	CreatedAt       time.Time `json:"created_at,omitempty" db:"created_at"`
}

// StockAlert is a stock-risk notice derived from a forecast.
type StockAlert struct {
	ID                  int64       `json:"id,omitempty" db:"id"`
	ProductID           int64       `json:"product_id" db:"product_id"`
	AlertType           AlertType   `json:"alert_type" db:"alert_type"`
	Message             string      `json:"message" db:"message"`
	RecommendedOrderQty int         `json:"recommended_order_qty" db:"recommended_order_qty"`
	DaysUntilStockout   int         `json:"days_until_stockout" db:"days_until_stockout"`
	Status              AlertStatus `json:"status" db:"status"`
	CreatedAt           time.Time   `json:"created_at,omitempty" db:"created_at"`
}

// ModelMetrics holds hold-out scores for one candidate regressor
type ModelMetrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// TrainingMetrics reports both candidates and which one won.
type TrainingMetrics struct {
	Linear    ModelMetrics `json:"linear_regression"`
	Forest    ModelMetrics `json:"random_forest"`
	BestModel string       `json:"best_model"`
}

// RunOutcome is the per-product record returned by a batch run.
type RunOutcome struct {
	ProductID int64            `json:"product_id"`
	Status    OutcomeStatus    `json:"status"`
	ModelUsed string           `json:"model_used,omitempty"`
	Metrics   *TrainingMetrics `json:"metrics,omitempty"`
	Alert     *StockAlert      `json:"alert,omitempty"`
	Error     string           `json:"error,omitempty"`
	Duration  time.Duration    `json:"duration"`
}

// BatchRun tracks a single execution of the forecasting batch
type BatchRun struct {
	ID            int64      `json:"id" db:"id"`
	RunKey        string     `json:"run_key" db:"run_key"`
	Status        RunStatus  `json:"status" db:"status"`
	TotalProducts int        `json:"total_products" db:"total_products"`
	Succeeded     int        `json:"succeeded" db:"succeeded"`
	Skipped       int        `json:"skipped" db:"skipped"`
	Failed        int        `json:"failed" db:"failed"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage  string     `json:"error_message,omitempty" db:"error_message"`
}

// Selected returns the metrics of the model that won selection.
func (m TrainingMetrics) Selected() ModelMetrics {
	if m.BestModel == ModelRandomForest {
		return m.Forest
	}
	return m.Linear
}

// ProductForecast is the per-product view served by the predictions endpoint.
type ProductForecast struct {
	ProductID         int64           `json:"product_id"`
	ProductName       string          `json:"product_name"`
	StockQuantity     int             `json:"stock_quantity"`
	Demand7           float64         `json:"demand_7"`
	Demand14          float64         `json:"demand_14"`
	Demand30          float64         `json:"demand_30"`
	DaysUntilStockout float64         `json:"days_until_stockout"`
	ModelUsed         string          `json:"model_used,omitempty"`
	Predictions       []ForecastPoint `json:"predictions"`
}

// ProductTrend is the observed daily sales series for one product.
type ProductTrend struct {
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	Days        int        `json:"days"`
	Trends      []SalesDay `json:"trends"`
}
