package main

import (
	"log/slog"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
)

const minPoolWorkers = 4

// workerPool runs blocking filesystem work (scans, deletions) off the event
// loop. When every worker is busy, submitted tasks wait for a free one.
type workerPool struct {
	pool *ants.Pool
}

func newWorkerPool(size int, logger *slog.Logger) (*workerPool, error) {
	if size <= 0 {
		size = max(runtime.NumCPU(), minPoolWorkers)
	}
	pool, err := ants.NewPool(size,
		ants.WithMaxBlockingTasks(0),
		ants.WithPanicHandler(func(r any) {
			logger.Error("worker panicked", "panic", r)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	return &workerPool{pool: pool}, nil
}

// Submit runs task on the pool, blocking until a worker is free. It only
// fails once the pool has been released.
func (w *workerPool) Submit(task func()) error {
	return errors.Wrap(w.pool.Submit(task), "submit task")
}

// Queue hands task to the pool without blocking the caller. onErr runs if
// the pool refuses the task.
func (w *workerPool) Queue(task func(), onErr func(error)) {
	go func() {
		if err := w.Submit(task); err != nil {
			onErr(err)
		}
	}()
}

func (w *workerPool) Release() {
	w.pool.Release()
}
