package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demand-forecast/internal/config"
	"github.com/andresuchdata/demand-forecast/internal/domain"
)

func TestRunPoolKeepsInputOrder(t *testing.T) {
	ids := []int64{5, 3, 9, 1, 7, 2, 8, 4, 6, 10}
	outcomes := map[int64]domain.RunOutcome{}
	for _, id := range ids {
		outcomes[id] = domain.RunOutcome{Status: domain.OutcomeOK}
	}

	got := runPool(context.Background(), 3, ids, stubRunner{outcomes: outcomes})

	require.Len(t, got, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, got[i].ProductID)
		assert.Equal(t, domain.OutcomeOK, got[i].Status)
	}
}

func TestRunPoolIsolatesPanics(t *testing.T) {
	runner := stubRunner{
		outcomes: map[int64]domain.RunOutcome{1: {Status: domain.OutcomeOK}, 3: {Status: domain.OutcomeOK}},
		panicOn:  2,
	}

	got := runPool(context.Background(), 2, []int64{1, 2, 3}, runner)

	assert.Equal(t, domain.OutcomeOK, got[0].Status)
	assert.Equal(t, domain.OutcomeFailed, got[1].Status)
	assert.Equal(t, int64(2), got[1].ProductID)
	assert.Contains(t, got[1].Error, "panic: boom")
	assert.Equal(t, domain.OutcomeOK, got[2].Status)
}

func TestRunPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := runPool(ctx, 4, []int64{1, 2}, stubRunner{})

	for _, o := range got {
		assert.Equal(t, domain.OutcomeFailed, o.Status)
		assert.Contains(t, o.Error, context.Canceled.Error())
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.ForecastConfig{
		HistoryDays:      90,
		HorizonDays:      14,
		Workers:          8,
		MinTrainingRows:  25,
		TestFraction:     0.25,
		DropLagWarmup:    true,
		ForestTrees:      50,
		ForestMaxDepth:   6,
		ForestSeed:       7,
		GrowthMultiplier: 2,
		GrowthFloor:      5,
	}, config.StorageConfig{ReportPrefix: "runs"})

	assert.Equal(t, 90, cfg.HistoryDays)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "runs", cfg.ReportPrefix)
	assert.Equal(t, 25, cfg.Trainer.MinRows)
	assert.Equal(t, 0.25, cfg.Trainer.TestFraction)
	assert.Equal(t, 50, cfg.Trainer.Forest.Trees)
	assert.Equal(t, 6, cfg.Trainer.Forest.MaxDepth)
	assert.Equal(t, int64(7), cfg.Trainer.Forest.Seed)
	assert.Equal(t, 14, cfg.Forecaster.HorizonDays)
	assert.Equal(t, 2.0, cfg.Forecaster.GrowthMultiplier)

	def := FromConfig(config.ForecastConfig{}, config.StorageConfig{})
	assert.Equal(t, 60, def.HistoryDays)
	assert.Equal(t, 4, def.Workers)
	assert.Equal(t, "forecast-runs", def.ReportPrefix)
	assert.Equal(t, 100, def.Trainer.Forest.Trees)
}
