package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/repository"
)

type runRepository struct {
	db *DB
}

func NewRunRepository(db *DB) repository.RunRepository {
	return &runRepository{db: db}
}

// CreateRun creates a new batch run record
func (r *runRepository) CreateRun(ctx context.Context, run *domain.BatchRun) error {
	query := `
		INSERT INTO forecast_runs (
			run_key, status, total_products, succeeded,
			skipped, failed, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		run.RunKey, run.Status, run.TotalProducts, run.Succeeded,
		run.Skipped, run.Failed, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("error creating forecast run: %w", err)
	}

	return nil
}

// CompleteRun stores the final counters and status of a run
func (r *runRepository) CompleteRun(ctx context.Context, run *domain.BatchRun) error {
	query := `
		UPDATE forecast_runs
		SET status = $1, succeeded = $2, skipped = $3, failed = $4,
		    completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.Succeeded, run.Skipped, run.Failed,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("error completing forecast run: %w", err)
	}

	return nil
}

// AddOutcomes records the per-product results of a run
func (r *runRepository) AddOutcomes(ctx context.Context, runID int64, outcomes []domain.RunOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	const cols = 9
	values := make([]string, 0, len(outcomes))
	args := make([]interface{}, 0, len(outcomes)*cols)
	for i, o := range outcomes {
		base := i * cols
		placeholders := make([]string, cols)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")

		var rmse, mae, r2 sql.NullFloat64
		if o.Metrics != nil {
			selected := o.Metrics.Selected()
			rmse = sql.NullFloat64{Float64: selected.RMSE, Valid: true}
			mae = sql.NullFloat64{Float64: selected.MAE, Valid: true}
			r2 = sql.NullFloat64{Float64: selected.R2, Valid: true}
		}

		args = append(args,
			runID, o.ProductID, o.Status, nullIfEmpty(o.ModelUsed),
			rmse, mae, r2, nullIfEmpty(o.Error), o.Duration.Milliseconds(),
		)
	}

	query := `
		INSERT INTO forecast_run_outcomes (
			run_id, product_id, status, model_used,
			rmse, mae, r2, error_message, duration_ms
		) VALUES ` + strings.Join(values, ", ")

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error inserting run outcomes: %w", err)
		}
		return nil
	})
}

// GetRun retrieves a batch run by ID
func (r *runRepository) GetRun(ctx context.Context, id int64) (*domain.BatchRun, error) {
	query := `
		SELECT id, run_key, status, total_products, succeeded, skipped, failed,
		       started_at, completed_at, COALESCE(error_message, '') AS error_message
		FROM forecast_runs
		WHERE id = $1
	`

	run := &domain.BatchRun{}
	if err := r.db.GetContext(ctx, run, query, id); err != nil {
		return nil, fmt.Errorf("error getting forecast run: %w", err)
	}

	return run, nil
}

// nullIfEmpty returns NULL if the string is empty, otherwise returns the string
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
