package worker

import (
	"context"
	"errors"
)

// indexedResult tags a result with its job's position
type indexedResult struct {
	index  int
	result Result
}

func (r *indexedResult) GetError() error {
	return r.result.GetError()
}

type indexedJob struct {
	index int
	job   Job
}

func (j *indexedJob) Execute(ctx context.Context) Result {
	return &indexedResult{index: j.index, result: j.job.Execute(ctx)}
}

// BatchProcessor runs batches of jobs on a fresh pool per batch
type BatchProcessor struct {
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{concurrency: concurrency}
}

// Concurrency returns the number of workers used per batch
func (b *BatchProcessor) Concurrency() int {
	return b.concurrency
}

// Process executes jobs concurrently and returns results in job order.
// A nil entry means the job never ran because ctx was cancelled.
func (b *BatchProcessor) Process(ctx context.Context, jobs []Job) []Result {
	if len(jobs) == 0 {
		return []Result{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	for i, job := range jobs {
		pool.Submit(&indexedJob{index: i, job: job})
	}

	ordered := make([]Result, len(jobs))
	for _, result := range pool.Wait() {
		r := result.(*indexedResult)
		ordered[r.index] = r.result
	}
	return ordered
}

// FirstError returns the first non-nil error in job order, or ctx.Err() when
// a job was skipped
func FirstError(ctx context.Context, results []Result) error {
	for _, r := range results {
		if r == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			return errors.New("job did not run")
		}
		if err := r.GetError(); err != nil {
			return err
		}
	}
	return nil
}
