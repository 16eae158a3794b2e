package pipeline

import (
	"path"

	"github.com/andresuchdata/demand-forecast/internal/config"
	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/forecast"
)

// Config holds everything a batch run needs. It is built once from the
// process configuration and passed down explicitly.
type Config struct {
	HistoryDays  int // Observation window in days
	Workers      int // Number of products processed concurrently
	ReportPrefix string
	Trainer      forecast.TrainerConfig
	Forecaster   forecast.ForecasterConfig
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		HistoryDays:  forecast.DefaultHistoryDays,
		Workers:      4,
		ReportPrefix: "forecast-runs",
		Trainer:      forecast.DefaultTrainerConfig(),
		Forecaster:   forecast.DefaultForecasterConfig(),
	}
}

// FromConfig maps the forecast and storage sections of the process configuration.
func FromConfig(fc config.ForecastConfig, sc config.StorageConfig) Config {
	cfg := DefaultConfig()
	if fc.HistoryDays > 0 {
		cfg.HistoryDays = fc.HistoryDays
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if sc.ReportPrefix != "" {
		cfg.ReportPrefix = sc.ReportPrefix
	}

	cfg.Trainer.MinRows = fc.MinTrainingRows
	cfg.Trainer.TestFraction = fc.TestFraction
	cfg.Trainer.DropLagWarmup = fc.DropLagWarmup
	if fc.ForestTrees > 0 {
		cfg.Trainer.Forest.Trees = fc.ForestTrees
	}
	if fc.ForestMaxDepth > 0 {
		cfg.Trainer.Forest.MaxDepth = fc.ForestMaxDepth
	}
	if fc.ForestSeed != 0 {
		cfg.Trainer.Forest.Seed = fc.ForestSeed
	}

	cfg.Forecaster.HorizonDays = fc.HorizonDays
	cfg.Forecaster.GrowthMultiplier = fc.GrowthMultiplier
	cfg.Forecaster.GrowthFloor = fc.GrowthFloor
	return cfg
}

// BatchResult is what RunForAllProducts hands back: the run record and one
// outcome per product, in catalog order.
type BatchResult struct {
	Run       domain.BatchRun     `json:"run"`
	Outcomes  []domain.RunOutcome `json:"outcomes"`
	ReportKey string              `json:"report_key,omitempty"`
}

// Report is the JSON document uploaded to object storage after each run.
type Report struct {
	Run      domain.BatchRun     `json:"run"`
	Outcomes []domain.RunOutcome `json:"outcomes"`
}

// ReportKey returns <prefix>/<yyyy-mm-dd>/<run key>.json
func ReportKey(prefix string, run domain.BatchRun) string {
	return path.Join(prefix, run.StartedAt.UTC().Format("2006-01-02"), run.RunKey+".json")
}

func tally(run *domain.BatchRun, outcomes []domain.RunOutcome) {
	run.Succeeded, run.Skipped, run.Failed = 0, 0, 0
	for _, o := range outcomes {
		switch o.Status {
		case domain.OutcomeOK:
			run.Succeeded++
		case domain.OutcomeSkippedNoSales:
			run.Skipped++
		default:
			run.Failed++
		}
	}
}
