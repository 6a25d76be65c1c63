package task

import "context"

// Repository is the persistence port for durable tasks. Ephemeral tasks
// never reach it; they live in the channel's in-process map.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, t *Task) error
}
