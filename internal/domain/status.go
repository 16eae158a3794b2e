package domain

import "strings"

// Regressor tags persisted with forecasts.
const (
	ModelLinearRegression = "linear_regression"
	ModelRandomForest     = "random_forest"
)

// AlertType classifies how soon a product is projected to run out.
type AlertType string

const (
	AlertCritical AlertType = "critical"
	AlertWarning  AlertType = "warning"
	AlertInfo     AlertType = "info"
)

// AlertStatus is the lifecycle state of a StockAlert.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusDismissed AlertStatus = "dismissed"
	AlertStatusResolved  AlertStatus = "resolved"
)

var alertStatuses = map[string]AlertStatus{
	"active":    AlertStatusActive,
	"dismissed": AlertStatusDismissed,
	"resolved":  AlertStatusResolved,
}

// ParseAlertStatus returns the status for a given label (case-insensitive).
func ParseAlertStatus(label string) (AlertStatus, bool) {
	status, ok := alertStatuses[strings.ToLower(strings.TrimSpace(label))]

	return status, ok
}

// OutcomeStatus is the result of a single product's pipeline run.
type OutcomeStatus string

const (
	OutcomeOK             OutcomeStatus = "ok"
	OutcomeSkippedNoSales OutcomeStatus = "skipped_no_sales"
	OutcomeFailed         OutcomeStatus = "failed"
)

// RunStatus represents the current state of a batch run
type RunStatus string

const (
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)
