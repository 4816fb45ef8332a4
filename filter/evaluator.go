package filter

import (
	"context"
	"runtime"
	"sync"

	"github.com/s0up4200/mstrctl/mstr"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the row count below which evaluation stays sequential,
// and the minimum chunk size above it
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator implements both Evaluator and BatchEvaluator interfaces
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
	pool        WorkerPool
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   1000,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.pool = NewWorkerPool(e.workerCount)

	return e
}

// Evaluate evaluates a single filter against all rows
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, rows []mstr.Row) ([]mstr.Row, error) {
	if len(rows) == 0 {
		return []mstr.Row{}, nil
	}

	// Small results and filters that can't run concurrently stay sequential
	if len(rows) < e.batchSize || !filter.IsThreadSafe() {
		return evaluateSequential(filter, rows), nil
	}

	return e.evaluateConcurrent(ctx, filter, rows)
}

// EvaluateBatch evaluates multiple filters against rows concurrently.
// Filters that fail are left out of the result.
func (e *ConcurrentEvaluator) EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, rows []mstr.Row) (map[string][]mstr.Row, error) {
	results := make(map[string][]mstr.Row, len(filters))
	if len(filters) == 0 {
		return results, nil
	}

	resultChan := make(chan BatchResult, len(filters))

	// Each filter runs sequentially inside its own task so batch work
	// never waits on the pool it is running in
	var wg sync.WaitGroup
	for name, filter := range filters {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				resultChan <- BatchResult{FilterName: name, Error: err}
				return
			}

			resultChan <- BatchResult{
				FilterName: name,
				Matches:    evaluateSequential(filter, rows),
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		if result.Error != nil {
			continue
		}
		results[result.FilterName] = result.Matches
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// evaluateSequential evaluates a filter against all rows in order
func evaluateSequential(filter CompiledFilter, rows []mstr.Row) []mstr.Row {
	matches := make([]mstr.Row, 0, len(rows)/4)
	for _, row := range rows {
		if filter.Evaluate(row) {
			matches = append(matches, row)
		}
	}
	return matches
}

// evaluateConcurrent splits rows into chunks on the worker pool and joins
// the matches back in row order
func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, rows []mstr.Row) ([]mstr.Row, error) {
	chunkSize := max(len(rows)/e.workerCount, e.batchSize)
	chunks := (len(rows) + chunkSize - 1) / chunkSize
	results := make([][]mstr.Row, chunks)

	var wg sync.WaitGroup
	for index := 0; index < chunks; index++ {
		start := index * chunkSize
		end := min(start+chunkSize, len(rows))

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}
			// Each chunk owns its own slot
			results[index] = evaluateSequential(filter, rows[start:end])
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, chunk := range results {
		total += len(chunk)
	}

	matches := make([]mstr.Row, 0, total)
	for _, chunk := range results {
		matches = append(matches, chunk...)
	}

	return matches, nil
}

// Stop gracefully stops the evaluator's worker pool
func (e *ConcurrentEvaluator) Stop(ctx context.Context) error {
	return e.pool.Stop(ctx)
}
