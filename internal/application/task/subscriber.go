package task

import (
	"context"
	"encoding/json"

	"veilink/internal/domain/agent"
	"veilink/internal/domain/task"
	"veilink/internal/infrastructure/pubsub"
	"veilink/internal/shared/logger"
)

// ResultHandler reacts to a freshly resolved task, keyed by task type.
// Handlers run on the ingestion goroutine for exactly the first delivery
// of a result; duplicates never reach them.
type ResultHandler func(ctx context.Context, t *task.Task) error

// Subscriber is the single long-lived consumer of agent result channels.
type Subscriber struct {
	bus      pubsub.Bus
	channel  *Channel
	tasks    task.Repository
	agents   agent.Repository
	logger   logger.Interface
	handlers map[task.Type]ResultHandler
}

// NewSubscriber creates a new result subscriber.
func NewSubscriber(
	bus pubsub.Bus,
	channel *Channel,
	tasks task.Repository,
	agents agent.Repository,
	log logger.Interface,
) *Subscriber {
	return &Subscriber{
		bus:      bus,
		channel:  channel,
		tasks:    tasks,
		agents:   agents,
		logger:   log,
		handlers: make(map[task.Type]ResultHandler),
	}
}

// Handle registers the handler for a task type. Call before Run; the
// registry is not mutated afterwards.
func (s *Subscriber) Handle(taskType task.Type, handler ResultHandler) {
	s.handlers[taskType] = handler
}

// Run blocks consuming result channels until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	return s.bus.PSubscribe(ctx, pubsub.TaskResultPattern, func(channel, payload string) {
		s.ingest(ctx, channel, payload)
	})
}

// ingest applies one published result. Unknown agents, unknown task ids
// and duplicate results are dropped; this is what makes redelivery and
// late results harmless.
func (s *Subscriber) ingest(ctx context.Context, channel, payload string) {
	agentID, err := pubsub.AgentIDFromResultChannel(channel)
	if err != nil {
		s.logger.Warnw("dropping result on unparseable channel", "channel", channel, "error", err)
		return
	}

	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		s.logger.Warnw("dropping result from unknown agent", "agent_id", agentID, "error", err)
		return
	}

	var envelope task.ResultEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		s.logger.Warnw("dropping malformed result", "agent_id", agentID, "error", err)
		return
	}

	t, err := s.channel.lookup(ctx, envelope.ID)
	if err != nil {
		s.logger.Errorw("failed to look up task for result", "task_id", envelope.ID, "error", err)
		return
	}
	if t == nil {
		s.logger.Debugw("dropping result for unknown or expired task", "task_id", envelope.ID)
		return
	}

	result := task.Result{Success: envelope.Success, Extra: envelope.Extra}
	if err := t.Resolve(result); err != nil {
		s.logger.Debugw("dropping duplicate result", "task_id", t.ID())
		return
	}

	if !t.IsEphemeral() {
		if err := s.tasks.Update(ctx, t); err != nil {
			s.logger.Errorw("failed to persist task result", "task_id", t.ID(), "error", err)
		}
	}

	s.logger.Infow("task resolved", "task_id", t.ID(), "agent_id", agentID, "success", result.Success)

	if handler, ok := s.handlers[t.Type()]; ok {
		if err := handler(ctx, t); err != nil {
			s.logger.Errorw("result handler failed", "task_id", t.ID(), "type", t.Type(), "error", err)
		}
	}
}
