// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface backed by a bounded errgroup.
package localexecutor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/adroit-lang/adroit/internal/ctxlog"
	"github.com/adroit-lang/adroit/internal/executor"
)

// Executor implements executor.Executor with at most Workers tasks in flight.
type Executor struct {
	workers int
}

// New creates a local executor. A non-positive worker count means one worker
// per available CPU.
func New(workers int) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{workers: workers}
}

var _ executor.Executor = (*Executor)(nil)

// Workers returns the concurrency limit.
func (e *Executor) Workers() int {
	return e.workers
}

// Run implements executor.Executor.
func (e *Executor) Run(ctx context.Context, tasks []executor.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	limit := min(e.workers, len(tasks))
	logger.Debug("Round starting.", "tasks", len(tasks), "workers", limit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Debug("Round stopped.", "error", err)
		return err
	}
	logger.Debug("Round finished.", "tasks", len(tasks))
	return nil
}
