// Package sched isolates the legacy calculator's blocking, non-reentrant
// calls from the concurrent request layer.
//
// A Worker owns exactly one draining goroutine; every bridge call funnels
// through it, so no two calls ever reach the calculator in parallel.
// Submitting and completing a call are the request's yield points: other
// requests make progress while one is queued or running, and a caller that
// gives up waits no longer. An in-flight call always runs to completion on
// the worker, but once its caller has gone its outcome is discarded, so the
// result of an abandoned call is not cached.
package sched

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultQueueDepth bounds how many calls may wait on the calculator
// before submission itself blocks.
const DefaultQueueDepth = 32

type task struct {
	ctx context.Context
	fn  func(context.Context) error
	res chan error
}

// Worker serialises calculator calls through a single goroutine.
type Worker struct {
	queue  chan task
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewWorker starts a calculator worker with the given queue depth.
// A depth of 0 or less uses DefaultQueueDepth.
func NewWorker(depth int, logger *slog.Logger) *Worker {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Worker{
		queue:  make(chan task, depth),
		logger: logger,
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	for t := range w.queue {
		// A caller that abandoned the request before its turn came up
		// never reaches the calculator.
		if err := t.ctx.Err(); err != nil {
			t.res <- err
			continue
		}
		t.res <- t.fn(t.ctx)
	}
	close(w.done)
}

// Do runs fn on the calculator worker and returns its error. It blocks
// until fn completes or ctx is done; in the latter case fn may still run
// to completion on the worker, but its outcome is discarded.
func (w *Worker) Do(ctx context.Context, fn func(context.Context) error) error {
	t := task{ctx: ctx, fn: fn, res: make(chan error, 1)}

	select {
	case w.queue <- t:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for the queue to drain.
// Safe to call more than once.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.queue)
	})
	<-w.done
}
