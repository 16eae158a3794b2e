package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/metrics"
	"github.com/andresuchdata/demand-forecast/internal/repository"
	"github.com/andresuchdata/demand-forecast/internal/storage"
)

// Orchestrator runs the pipeline over the whole catalog and records the batch.
type Orchestrator struct {
	cfg      Config
	runner   ProductRunner
	products repository.ProductRepository
	runs     repository.RunRepository
	reports  storage.ObjectStorage
	metrics  *metrics.Registry
	now      func() time.Time
}

// NewOrchestrator creates a new Orchestrator. runs, reports and reg may be nil.
func NewOrchestrator(
	cfg Config,
	runner ProductRunner,
	products repository.ProductRepository,
	runs repository.RunRepository,
	reports storage.ObjectStorage,
	reg *metrics.Registry,
) *Orchestrator {
	if reports == nil {
		reports = storage.Noop{}
	}
	return &Orchestrator{
		cfg:      cfg,
		runner:   runner,
		products: products,
		runs:     runs,
		reports:  reports,
		metrics:  reg,
		now:      time.Now,
	}
}

// RunForAllProducts processes every product in the catalog. It fails only when
// the catalog cannot be listed; each product's failure becomes its outcome.
func (o *Orchestrator) RunForAllProducts(ctx context.Context) (*BatchResult, error) {
	products, err := o.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	run := &domain.BatchRun{
		RunKey:        uuid.NewString(),
		Status:        domain.RunStatusProcessing,
		TotalProducts: len(products),
		StartedAt:     o.now().UTC(),
	}
	tracked := o.createRun(ctx, run)

	log.Info().Str("run_key", run.RunKey).Int("products", len(products)).
		Int("workers", o.cfg.Workers).Msg("starting forecast run")

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	outcomes := runPool(ctx, o.cfg.Workers, ids, o.runner)

	for _, outcome := range outcomes {
		o.metrics.ObserveOutcome(outcome)
	}

	tally(run, outcomes)
	run.Status = domain.RunStatusCompleted
	if run.TotalProducts > 0 && run.Failed == run.TotalProducts {
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = "every product failed"
	}
	completed := o.now().UTC()
	run.CompletedAt = &completed

	if tracked {
		o.completeRun(ctx, run, outcomes)
	}

	result := &BatchResult{Run: *run, Outcomes: outcomes}
	result.ReportKey = o.uploadReport(ctx, *run, outcomes)

	elapsed := run.CompletedAt.Sub(run.StartedAt)
	o.metrics.ObserveRun(len(products), elapsed)

	log.Info().
		Str("run_key", run.RunKey).
		Str("status", string(run.Status)).
		Int("succeeded", run.Succeeded).
		Int("skipped", run.Skipped).
		Int("failed", run.Failed).
		Dur("took", elapsed).
		Msg("forecast run finished")

	return result, nil
}

func (o *Orchestrator) createRun(ctx context.Context, run *domain.BatchRun) bool {
	if o.runs == nil {
		return false
	}
	if err := o.runs.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("run_key", run.RunKey).Msg("could not record forecast run, continuing untracked")
		return false
	}
	return true
}

func (o *Orchestrator) completeRun(ctx context.Context, run *domain.BatchRun, outcomes []domain.RunOutcome) {
	if err := o.runs.AddOutcomes(ctx, run.ID, outcomes); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to record run outcomes")
	}
	if err := o.runs.CompleteRun(ctx, run); err != nil {
		log.Error().Err(err).Int64("run_id", run.ID).Msg("failed to complete forecast run")
	}
}

func (o *Orchestrator) uploadReport(ctx context.Context, run domain.BatchRun, outcomes []domain.RunOutcome) string {
	if _, disabled := o.reports.(storage.Noop); disabled {
		return ""
	}

	payload, err := json.MarshalIndent(Report{Run: run, Outcomes: outcomes}, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("failed to encode run report")
		return ""
	}

	key := ReportKey(o.cfg.ReportPrefix, run)
	if err := o.reports.UploadObject(ctx, key, payload); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to upload run report")
		return ""
	}
	return key
}
