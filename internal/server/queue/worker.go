// Package queue implements the in-memory pending list and the single
// background worker that drains it. Accepted job IDs wait in FIFO order;
// the worker pops the oldest and runs generation to completion before
// looking again, sleeping a fixed interval while the list is empty.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/jspark-dev/pantrykeeper/internal/logging"
)

// Generator runs the generation step for one job.
type Generator interface {
	Generate(ctx context.Context, jobID string) error
}

// Worker is the single-consumer pending queue. Enqueue is safe for
// concurrent use; Run is meant to be called once. The Generator is passed
// to Run rather than the constructor because the service producing into
// the queue is also the one draining it.
type Worker struct {
	mu      sync.Mutex
	pending []string

	interval time.Duration
	log      logging.Logger
}

func NewWorker(interval time.Duration, log logging.Logger) *Worker {
	return &Worker{interval: interval, log: log}
}

// Enqueue appends a job ID to the pending list.
func (w *Worker) Enqueue(jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, jobID)
}

// Len reports the number of pending entries.
func (w *Worker) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Worker) pop() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return "", false
	}
	id := w.pending[0]
	w.pending = w.pending[1:]
	return id, true
}

// Run processes the queue until the context is canceled. A job that fails
// only affects its own status; the loop always moves on to the next entry.
func (w *Worker) Run(ctx context.Context, gen Generator) {
	w.log.Info(ctx, "recipe worker started", "poll_interval", w.interval)

	for {
		if ctx.Err() != nil {
			w.log.Info(ctx, "recipe worker stopped")
			return
		}

		id, ok := w.pop()
		if !ok {
			select {
			case <-ctx.Done():
				w.log.Info(ctx, "recipe worker stopped")
				return
			case <-time.After(w.interval):
			}
			continue
		}

		if err := gen.Generate(ctx, id); err != nil {
			w.log.Warn(ctx, "skipping job", "rjid", id, "error", err)
		}
	}
}
