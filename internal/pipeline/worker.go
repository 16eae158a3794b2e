package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

type productJob struct {
	index     int
	productID int64
}

// runPool fans product ids out to a bounded set of workers and returns one
// outcome per id, in the order the ids were given. A product that panics or
// is reached after ctx is done gets a failed outcome.
func runPool(ctx context.Context, workerCount int, ids []int64, runner ProductRunner) []domain.RunOutcome {
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > len(ids) {
		workerCount = len(ids)
	}

	outcomes := make([]domain.RunOutcome, len(ids))
	jobChan := make(chan productJob, len(ids))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				outcomes[job.index] = runJob(ctx, workerID, runner, job)
			}
		}(i)
	}

	// Enqueue jobs
	for i, id := range ids {
		jobChan <- productJob{index: i, productID: id}
	}
	close(jobChan)

	wg.Wait()
	return outcomes
}

func runJob(ctx context.Context, workerID int, runner ProductRunner, job productJob) (outcome domain.RunOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("worker", workerID).Int64("product_id", job.productID).
				Interface("panic", r).Msg("product run panicked")
			outcome = domain.RunOutcome{
				ProductID: job.productID,
				Status:    domain.OutcomeFailed,
				Error:     fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.RunOutcome{ProductID: job.productID, Status: domain.OutcomeFailed, Error: err.Error()}
	}
	return runner.RunProduct(ctx, job.productID)
}
