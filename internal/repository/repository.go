// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// OrderRepository reads order lines joined with their parent order timestamp.
type OrderRepository interface {
	GetOrderLines(ctx context.Context, productID int64, since, until time.Time) ([]domain.OrderLine, error)
}

type ProductRepository interface {
	// GetProduct fails with domain.ErrProductNotFound when the id is unknown.
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// ForecastRepository persists forecast points and alerts. Both replace
// operations run in a single transaction each.
type ForecastRepository interface {
	ReplaceForecasts(ctx context.Context, productID int64, points []domain.ForecastPoint) error
	// ReplaceActiveAlert deletes the product's active alerts and inserts alert
	// when it is not nil.
	ReplaceActiveAlert(ctx context.Context, productID int64, alert *domain.StockAlert) error
	GetForecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, error)
	ListAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, error)
	UpdateAlertStatus(ctx context.Context, alertID int64, status domain.AlertStatus) error
}

// RunRepository handles database operations for batch run tracking
type RunRepository interface {
	CreateRun(ctx context.Context, run *domain.BatchRun) error
	CompleteRun(ctx context.Context, run *domain.BatchRun) error
	AddOutcomes(ctx context.Context, runID int64, outcomes []domain.RunOutcome) error
	GetRun(ctx context.Context, id int64) (*domain.BatchRun, error)
}
