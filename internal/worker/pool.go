package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pool runs indexed jobs across a bounded number of workers.
type Pool struct {
	// Concurrency is the number of workers. Values below 1 mean 1.
	Concurrency int
	Logger      *slog.Logger
}

// NewPool creates a pool with the given concurrency.
func NewPool(concurrency int, logger *slog.Logger) *Pool {
	return &Pool{Concurrency: concurrency, Logger: logger}
}

// Run calls fn for each index in [0, n). At most Concurrency calls run at
// once. When ctx is cancelled no further jobs start and Run returns
// ctx.Err() after running jobs return; skipped indexes are never passed to fn.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := min(max(p.Concurrency, 1), n)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for id := 0; id < workers; id++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.processLoop(ctx, jobs, fn, logger.With("worker_id", workerID))
		}(id)
	}

	startTime := time.Now()
feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	logger.Debug("pool finished", "jobs", n, "workers", workers, "duration", time.Since(startTime))
	return ctx.Err()
}

func (p *Pool) processLoop(ctx context.Context, jobs <-chan int, fn func(ctx context.Context, i int), logger *slog.Logger) {
	for i := range jobs {
		if ctx.Err() != nil {
			logger.Debug("worker context cancelled, skipping job", "job", i)
			continue
		}
		fn(ctx, i)
	}
}
