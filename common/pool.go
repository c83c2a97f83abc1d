package common

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// sharedPool is created on first use and lives for the rest of the process, so
// parsers and renderers never start workers of their own.
var sharedPool = sync.OnceValue(func() worker.DynamicWorkerPool {
	return worker.NewDynamicWorkerPool(max(runtime.NumCPU(), 2), 256, 1*time.Second)
})

var taskIDs atomic.Int64

// WorkerPool returns the process-wide compute pool.
//
// Returns:
//   - worker.DynamicWorkerPool: the shared pool
func WorkerPool() worker.DynamicWorkerPool {
	return sharedPool()
}

// ParallelRange splits [0, n) into about parts contiguous batches, runs fn on each
// batch on the shared pool, and returns once every batch is done. fn must not submit
// work to the pool itself.
//
// Parameters:
//   - n: the number of elements
//   - parts: the number of batches to aim for
//   - fn: called with each half-open batch [from, to)
func ParallelRange(n, parts int, fn func(from, to int)) {
	if n <= 0 {
		return
	}
	if parts <= 1 || n == 1 {
		fn(0, n)
		return
	}
	size := (n + parts - 1) / parts
	pool := WorkerPool()
	var wg sync.WaitGroup
	for from := 0; from < n; from += size {
		to := min(from+size, n)
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: int(taskIDs.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				fn(from, to)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
