// Package ports declares the collaborator interfaces the pipeline core
// depends on, so every external system can be swapped for an in-memory
// fake in tests.
package ports

import (
	"context"
	"errors"

	"articleforge/internal/model"
)

// Store errors shared by all StateStore implementations.
var (
	ErrNotFound = errors.New("job state not found")
	ErrExists   = errors.New("job state already exists")
)

// Generator is the content-generation service. Calls are long-running;
// implementations must honor the context deadline.
type Generator interface {
	Generate(ctx context.Context, prompt string, promptCtx map[string]string) (string, error)
}

// StateStore persists JobState keyed by idempotency key. Create must
// enforce key uniqueness atomically so concurrent duplicate submissions
// collapse onto one record.
type StateStore interface {
	Create(ctx context.Context, state *model.JobState) error
	Get(ctx context.Context, key string) (*model.JobState, error)
	Put(ctx context.Context, state *model.JobState) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*model.JobState, error)
}

// Broker is the job queue. Enqueue reports false when the key already
// has an active or completed entry; delivery is at-least-once, so
// exactly-once execution rests on the key dedup plus the store's unique
// constraint.
type Broker interface {
	Enqueue(key string) bool
	Dequeue(ctx context.Context) (string, bool)
	Ack(key string)
}
