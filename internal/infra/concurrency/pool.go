// Package concurrency fans document processing out over a bounded set of
// worker goroutines.
package concurrency

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// maxWorkers caps the pool size.
const maxWorkers = 64

// Job is one item submitted to the pool. Index is echoed in the Result.
type Job[T any] struct {
	Index int
	Item  T
}

// Result carries the output for the job with the same Index.
type Result[R any] struct {
	Index int
	Value R
}

// ErrPoolRunning is returned by Start on a pool that was already started.
var ErrPoolRunning = errors.New("worker pool is already running")

// WorkerPool runs fn over submitted jobs with a fixed number of workers.
type WorkerPool[T, R any] struct {
	size    int
	fn      func(context.Context, T) R
	jobs    chan Job[T]
	results chan Result[R]

	started       atomic.Bool
	activeWorkers atomic.Int32
	processedJobs atomic.Int64
	closeOnce     sync.Once
}

// NewWorkerPool creates a pool of size workers. Zero means one per CPU,
// negative values mean one.
func NewWorkerPool[T, R any](size int, fn func(context.Context, T) R) *WorkerPool[T, R] {
	switch {
	case size < 0:
		size = 1
	case size == 0:
		size = runtime.NumCPU()
	}
	if size > maxWorkers {
		size = maxWorkers
	}

	return &WorkerPool[T, R]{
		size:    size,
		fn:      fn,
		jobs:    make(chan Job[T], size*2),
		results: make(chan Result[R], size*2),
	}
}

// Size returns the number of workers in the pool.
func (wp *WorkerPool[T, R]) Size() int {
	return wp.size
}

// Start launches the workers. The results channel is closed once every
// worker has exited, either because the job queue was closed or ctx ended.
func (wp *WorkerPool[T, R]) Start(ctx context.Context) error {
	if !wp.started.CompareAndSwap(false, true) {
		return ErrPoolRunning
	}

	var wg sync.WaitGroup
	wp.activeWorkers.Store(int32(wp.size))
	for i := 0; i < wp.size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer wp.activeWorkers.Add(-1)
			wp.work(ctx)
		}()
	}

	go func() {
		wg.Wait()
		close(wp.results)
	}()
	return nil
}

func (wp *WorkerPool[T, R]) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			result := Result[R]{Index: job.Index, Value: wp.fn(ctx, job.Item)}
			wp.processedJobs.Add(1)

			select {
			case wp.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full.
func (wp *WorkerPool[T, R]) Submit(ctx context.Context, job Job[T]) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseJobs signals that no more jobs will be submitted.
func (wp *WorkerPool[T, R]) CloseJobs() {
	wp.closeOnce.Do(func() { close(wp.jobs) })
}

// Results returns the result channel.
func (wp *WorkerPool[T, R]) Results() <-chan Result[R] {
	return wp.results
}

// ActiveWorkers returns the number of workers that have not exited.
func (wp *WorkerPool[T, R]) ActiveWorkers() int {
	return int(wp.activeWorkers.Load())
}

// ProcessedJobs returns the total number of jobs processed.
func (wp *WorkerPool[T, R]) ProcessedJobs() int {
	return int(wp.processedJobs.Load())
}

// Map applies fn to every item and returns the outputs in input order.
// Small inputs run on the calling goroutine. When ctx ends early the
// outputs of unprocessed items are zero values and ctx.Err() is returned.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) R) ([]R, error) {
	out := make([]R, len(items))

	pool := NewWorkerPool(workers, fn)
	if len(items) < 2 || pool.Size() == 1 {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			out[i] = fn(ctx, item)
		}
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := pool.Start(ctx); err != nil {
		return out, err
	}

	go func() {
		defer pool.CloseJobs()
		for i, item := range items {
			if pool.Submit(ctx, Job[T]{Index: i, Item: item}) != nil {
				return
			}
		}
	}()

	for result := range pool.Results() {
		out[result.Index] = result.Value
	}
	return out, ctx.Err()
}
