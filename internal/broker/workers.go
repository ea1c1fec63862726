package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"articleforge/internal/model"
	"articleforge/internal/pipeline"
	"articleforge/internal/ports"
)

// RecoverPending re-enqueues jobs that were still in flight when the
// previous process stopped. Terminal and cancelled jobs stay put. With a
// durable store this is what resumes work after a restart; on an empty
// store it is a no-op.
func RecoverPending(ctx context.Context, st ports.StateStore, b ports.Broker, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	states, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("list job states: %w", err)
	}
	for _, state := range states {
		if state.Terminal() || state.Cancelled {
			continue
		}
		if b.Enqueue(state.Key()) {
			log.Info("requeued interrupted job", "key", state.Key(), "stage", state.Stage)
		}
	}
	return nil
}

// Workers drains the broker with a fixed-size pool. Each dequeued key is
// driven to a terminal stage by exactly one worker, which is what
// serializes stage execution per job while independent jobs run in
// parallel.
type Workers struct {
	broker ports.Broker
	pipe   *pipeline.Pipeline
	count  int
	log    *slog.Logger
}

// NewWorkers sizes the pool; count defaults to 4.
func NewWorkers(b ports.Broker, p *pipeline.Pipeline, count int, log *slog.Logger) *Workers {
	if count <= 0 {
		count = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Workers{broker: b, pipe: p, count: count, log: log}
}

// Start runs the pool until the context is cancelled. Job failures are
// recorded on the job itself and logged; they never stop the pool.
func (w *Workers) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.count; i++ {
		worker := w.log.With("worker", i)
		g.Go(func() error {
			for {
				key, ok := w.broker.Dequeue(ctx)
				if !ok {
					return nil
				}
				if err := w.pipe.Run(ctx, key); err != nil {
					if errors.Is(err, model.ErrRetryExhausted) {
						worker.Warn("job exhausted retries", "key", key)
					} else if ctx.Err() == nil {
						worker.Error("job run aborted", "key", key, "error", err)
					}
				}
				w.broker.Ack(key)
			}
		})
	}
	return g.Wait()
}
