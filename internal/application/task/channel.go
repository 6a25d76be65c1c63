// Package task implements the dispatch channel between the control plane
// and its agents: commands go out on per-agent bus channels, results come
// back on a wildcard subscription and resolve tasks exactly once.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"veilink/internal/domain/task"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/id"
	"veilink/internal/shared/logger"
)

// pollInterval is how often AwaitResult re-checks for a result.
const pollInterval = 100 * time.Millisecond

// Channel dispatches tasks to agents and lets callers wait for their
// results. Durable tasks are persisted before publish; ephemeral tasks
// live only in the in-process map and their ids are derived from content
// so a retried dispatch converges on the same task.
type Channel struct {
	bus    pubsub.Bus
	tasks  task.Repository
	logger logger.Interface

	mu        sync.RWMutex
	ephemeral map[string]*task.Task
}

// NewChannel creates a new task channel.
func NewChannel(bus pubsub.Bus, tasks task.Repository, log logger.Interface) *Channel {
	return &Channel{
		bus:       bus,
		tasks:     tasks,
		logger:    log,
		ephemeral: make(map[string]*task.Task),
	}
}

// Dispatch creates a durable task and publishes it to the agent's
// channel. Publishing is fire-and-forget: a delivered-but-ignored task
// simply times out in AwaitResult.
func (c *Channel) Dispatch(ctx context.Context, agentID uint, taskType task.Type, payload any) (*task.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task payload: %w", err)
	}

	taskID, err := id.GenerateWithPrefix(id.PrefixTask, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate task id: %w", err)
	}

	t, err := task.NewTask(taskID, agentID, taskType, raw)
	if err != nil {
		return nil, err
	}

	if err := c.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	if err := c.publish(ctx, t); err != nil {
		return nil, err
	}

	c.logger.Infow("task dispatched", "task_id", t.ID(), "agent_id", agentID, "type", taskType)
	return t, nil
}

// DispatchEphemeral creates an in-memory task whose id is derived from
// its content and publishes it. Results arriving after the task has been
// forgotten are dropped by the subscriber.
func (c *Channel) DispatchEphemeral(ctx context.Context, agentID uint, taskType task.Type, payload any) (*task.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task payload: %w", err)
	}

	content := fmt.Sprintf("%d:%s:%s", agentID, taskType, raw)
	taskID := id.DeriveWithPrefix(id.PrefixEphemeral, []byte(content))

	t, err := task.NewTask(taskID, agentID, taskType, raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.ephemeral[taskID]; ok {
		// Same content already in flight; converge on it.
		c.mu.Unlock()
		return existing, nil
	}
	c.ephemeral[taskID] = t
	c.mu.Unlock()

	if err := c.publish(ctx, t); err != nil {
		c.Forget(taskID)
		return nil, err
	}

	c.logger.Debugw("ephemeral task dispatched", "task_id", t.ID(), "agent_id", agentID, "type", taskType)
	return t, nil
}

func (c *Channel) publish(ctx context.Context, t *task.Task) error {
	envelope := task.Envelope{ID: t.ID(), Type: t.Type(), Payload: t.Payload()}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to serialize task envelope: %w", err)
	}
	return c.bus.Publish(ctx, pubsub.TaskChannel(t.AgentID()), raw)
}

// AwaitResult polls until the task resolves or the timeout elapses.
// Ephemeral tasks are forgotten when the wait ends either way; a late
// result for a forgotten id is dropped on ingestion.
func (c *Channel) AwaitResult(ctx context.Context, taskID string, timeout time.Duration) (*task.Result, error) {
	if task.IsEphemeralID(taskID) {
		defer c.Forget(taskID)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	for {
		t, err := c.lookup(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if t != nil && t.IsResolved() {
			return t.Result(), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, task.ErrTimeout
		case <-tick.C:
		}
	}
}

// lookup finds a task, checking the ephemeral map before the store.
func (c *Channel) lookup(ctx context.Context, taskID string) (*task.Task, error) {
	c.mu.RLock()
	t, ok := c.ephemeral[taskID]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}
	if task.IsEphemeralID(taskID) {
		return nil, nil
	}
	return c.tasks.GetByID(ctx, taskID)
}

// Forget drops an ephemeral task from the in-process map.
func (c *Channel) Forget(taskID string) {
	c.mu.Lock()
	delete(c.ephemeral, taskID)
	c.mu.Unlock()
}
