package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/metrics"
	"github.com/andresuchdata/demand-forecast/internal/repository"
	"github.com/andresuchdata/demand-forecast/internal/storage"
)

func newTestOrchestrator(
	cfg Config,
	runner ProductRunner,
	catalog *memCatalog,
	runs repository.RunRepository,
	objects storage.ObjectStorage,
	reg *metrics.Registry,
) *Orchestrator {
	o := NewOrchestrator(cfg, runner, catalog, runs, objects, reg)
	o.now = fixedClock
	return o
}

func TestRunForAllProductsMixedOutcomes(t *testing.T) {
	catalog := newMemCatalog()
	catalog.add(domain.Product{ID: 1, Name: "Mug", StockQuantity: 5}, dailyLines(60, weekly))
	catalog.add(domain.Product{ID: 2, Name: "Kettle", StockQuantity: 9}, nil)
	catalog.add(domain.Product{ID: 3, Name: "Tray", StockQuantity: 2}, nil)
	catalog.lineErr[3] = errors.New("connection reset")

	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.ReportPrefix = "reports"

	store := newMemStore()
	runs := newMemRuns()
	objects := newMemObjects()
	reg := metrics.NewRegistry()
	runner := NewRunner(cfg, catalog, catalog, store, nil).WithClock(fixedClock)

	result, err := newTestOrchestrator(cfg, runner, catalog, runs, objects, reg).RunForAllProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, domain.OutcomeOK, result.Outcomes[0].Status)
	assert.Equal(t, domain.OutcomeSkippedNoSales, result.Outcomes[1].Status)
	assert.Equal(t, domain.OutcomeFailed, result.Outcomes[2].Status)
	assert.Contains(t, result.Outcomes[2].Error, "connection reset")

	run := result.Run
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.TotalProducts)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 1, run.Failed)
	require.NotNil(t, run.CompletedAt)
	assert.NotEmpty(t, run.RunKey)

	stored := runs.runs[run.ID]
	assert.Equal(t, domain.RunStatusCompleted, stored.Status)
	assert.Len(t, runs.outcomes[run.ID], 3)

	assert.Equal(t, "reports/2024-03-31/"+run.RunKey+".json", result.ReportKey)
	var report Report
	require.NoError(t, json.Unmarshal(objects.objects[result.ReportKey], &report))
	assert.Equal(t, run.RunKey, report.Run.RunKey)
	assert.Len(t, report.Outcomes, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ProductsProcessed.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ProductsProcessed.WithLabelValues("skipped_no_sales")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ProductsProcessed.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.LastRunProducts))
}

func TestRunForAllProductsListFailure(t *testing.T) {
	catalog := newMemCatalog()
	catalog.listErr = errors.New("catalog offline")

	result, err := newTestOrchestrator(DefaultConfig(), stubRunner{}, catalog, newMemRuns(), newMemObjects(), nil).
		RunForAllProducts(context.Background())

	assert.Nil(t, result)
	assert.ErrorContains(t, err, "catalog offline")
}

func TestRunForAllProductsEveryProductFailed(t *testing.T) {
	catalog := newMemCatalog()
	catalog.add(domain.Product{ID: 1}, nil)
	catalog.add(domain.Product{ID: 2}, nil)
	runner := stubRunner{outcomes: map[int64]domain.RunOutcome{
		1: {Status: domain.OutcomeFailed, Error: "a"},
		2: {Status: domain.OutcomeFailed, Error: "b"},
	}}

	result, err := newTestOrchestrator(DefaultConfig(), runner, catalog, nil, nil, nil).RunForAllProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusFailed, result.Run.Status)
	assert.Equal(t, 2, result.Run.Failed)
	assert.Empty(t, result.ReportKey)
}

func TestRunForAllProductsContinuesWhenRunTrackingFails(t *testing.T) {
	catalog := newMemCatalog()
	catalog.add(domain.Product{ID: 1}, nil)
	runs := newMemRuns()
	runs.createErr = errors.New("read-only transaction")
	runner := stubRunner{outcomes: map[int64]domain.RunOutcome{1: {Status: domain.OutcomeOK}}}

	result, err := newTestOrchestrator(DefaultConfig(), runner, catalog, runs, newMemObjects(), nil).
		RunForAllProducts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Run.Succeeded)
	assert.Zero(t, result.Run.ID)
	assert.Empty(t, runs.outcomes)
}

func TestRunForAllProductsEmptyCatalog(t *testing.T) {
	result, err := newTestOrchestrator(DefaultConfig(), stubRunner{}, newMemCatalog(), newMemRuns(), newMemObjects(), nil).
		RunForAllProducts(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Outcomes)
	assert.Equal(t, domain.RunStatusCompleted, result.Run.Status)
}
