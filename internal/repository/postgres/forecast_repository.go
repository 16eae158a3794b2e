package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/repository"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) repository.ForecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) ReplaceForecasts(ctx context.Context, productID int64, points []domain.ForecastPoint) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM demand_forecasts WHERE product_id = $1`, productID); err != nil {
			return fmt.Errorf("error deleting forecasts: %w", err)
		}

		if len(points) == 0 {
			return nil
		}

		const cols = 6
		values := make([]string, 0, len(points))
		args := make([]interface{}, 0, len(points)*cols)
		for i, p := range points {
			base := i * cols
			values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
			args = append(args, productID, p.Date, p.PredictedDemand, p.ConfidenceLower, p.ConfidenceUpper, p.ModelUsed)
		}

		query := `
			INSERT INTO demand_forecasts (
				product_id, forecast_date, predicted_demand,
				confidence_lower, confidence_upper, model_used
			) VALUES ` + strings.Join(values, ", ")

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error inserting forecasts: %w", err)
		}
		return nil
	})
}

func (r *forecastRepository) ReplaceActiveAlert(ctx context.Context, productID int64, alert *domain.StockAlert) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM stock_alerts WHERE product_id = $1 AND status = $2`,
			productID, domain.AlertStatusActive)
		if err != nil {
			return fmt.Errorf("error deleting active alerts: %w", err)
		}

		if alert == nil {
			return nil
		}

		query := `
			INSERT INTO stock_alerts (
				product_id, alert_type, message, recommended_order_qty,
				days_until_stockout, status
			) VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`

		err = tx.QueryRowContext(ctx, query,
			productID, alert.AlertType, alert.Message, alert.RecommendedOrderQty,
			alert.DaysUntilStockout, domain.AlertStatusActive,
		).Scan(&alert.ID, &alert.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting alert: %w", err)
		}

		alert.ProductID = productID
		alert.Status = domain.AlertStatusActive
		return nil
	})
}

func (r *forecastRepository) GetForecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, error) {
	query := `
		SELECT id, product_id, forecast_date, predicted_demand,
		       confidence_lower, confidence_upper, model_used, created_at
		FROM demand_forecasts
		WHERE product_id = $1
		ORDER BY forecast_date
	`

	var points []domain.ForecastPoint
	if err := r.db.SelectContext(ctx, &points, query, productID); err != nil {
		return nil, fmt.Errorf("error getting forecasts: %w", err)
	}

	return points, nil
}

func (r *forecastRepository) ListAlerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, error) {
	query := `
		SELECT id, product_id, alert_type, message, recommended_order_qty,
		       days_until_stockout, status, created_at
		FROM stock_alerts
		WHERE status = $1
		ORDER BY days_until_stockout, id
	`

	var alerts []domain.StockAlert
	if err := r.db.SelectContext(ctx, &alerts, query, status); err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}

	return alerts, nil
}

func (r *forecastRepository) UpdateAlertStatus(ctx context.Context, alertID int64, status domain.AlertStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE stock_alerts SET status = $1 WHERE id = $2`, status, alertID)
	if err != nil {
		return fmt.Errorf("error updating alert status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrAlertNotFound
	}

	return nil
}
