// Package services holds the agent liveness and status machinery driven
// by the periodic jobs.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	appTask "veilink/internal/application/task"
	"veilink/internal/domain/agent"
	"veilink/internal/domain/task"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/id"
	"veilink/internal/shared/logger"
)

// statusBatchSize bounds how many queued samples one drain consumes per
// agent.
const statusBatchSize = 100

// statusSample is one heartbeat popped from an agent's status queue.
type statusSample struct {
	Time int64 `json:"time"`
}

// StatusMonitor drains agent status queues and probes silent agents.
type StatusMonitor struct {
	agents      agent.Repository
	bus         pubsub.Bus
	channel     *appTask.Channel
	pingTimeout time.Duration
	logger      logger.Interface
}

// NewStatusMonitor creates a new status monitor.
func NewStatusMonitor(
	agents agent.Repository,
	bus pubsub.Bus,
	channel *appTask.Channel,
	pingTimeout time.Duration,
	log logger.Interface,
) *StatusMonitor {
	return &StatusMonitor{
		agents:      agents,
		bus:         bus,
		channel:     channel,
		pingTimeout: pingTimeout,
		logger:      log,
	}
}

// DrainStatus consumes queued heartbeats and marks reporting agents
// online.
func (m *StatusMonitor) DrainStatus(ctx context.Context) error {
	agents, err := m.agents.List(ctx)
	if err != nil {
		return err
	}

	for _, a := range agents {
		raws, err := m.bus.Pop(ctx, pubsub.StatusQueue(a.ID()), statusBatchSize)
		if err != nil {
			m.logger.Errorw("failed to drain status queue", "agent_id", a.ID(), "error", err)
			continue
		}
		if len(raws) == 0 {
			continue
		}

		lastSeen := time.Now()
		for _, raw := range raws {
			var sample statusSample
			if err := json.Unmarshal([]byte(raw), &sample); err != nil {
				continue
			}
			if sample.Time > 0 {
				lastSeen = time.Unix(sample.Time, 0)
			}
		}

		a.MarkOnline(lastSeen)
		if err := m.agents.Update(ctx, a); err != nil {
			m.logger.Errorw("failed to mark agent online", "agent_id", a.ID(), "error", err)
		}
	}
	return nil
}

// ProbeLiveness pings every online agent with an ephemeral task and
// marks the silent ones offline. The ping carries a nonce so each probe
// round derives a distinct ephemeral id.
func (m *StatusMonitor) ProbeLiveness(ctx context.Context) error {
	agents, err := m.agents.List(ctx)
	if err != nil {
		return err
	}

	for _, a := range agents {
		if !a.IsOnline() {
			continue
		}

		nonce, err := id.Generate(8)
		if err != nil {
			return err
		}

		t, err := m.channel.DispatchEphemeral(ctx, a.ID(), task.TypePing, task.PingPayload{Nonce: nonce})
		if err != nil {
			m.logger.Errorw("failed to dispatch ping", "agent_id", a.ID(), "error", err)
			continue
		}

		if _, err := m.channel.AwaitResult(ctx, t.ID(), m.pingTimeout); err != nil {
			if errors.Is(err, task.ErrTimeout) {
				m.logger.Warnw("agent unresponsive, marking offline", "agent_id", a.ID())
				a.MarkOffline()
				if err := m.agents.Update(ctx, a); err != nil {
					m.logger.Errorw("failed to mark agent offline", "agent_id", a.ID(), "error", err)
				}
				continue
			}
			return err
		}
	}
	return nil
}
