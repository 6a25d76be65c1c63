// Package services holds the forward lifecycle services shared by the
// use cases and the result ingestion path.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appTask "veilink/internal/application/task"
	"veilink/internal/application/tunnel"
	"veilink/internal/domain/agent"
	"veilink/internal/domain/forward"
	vo "veilink/internal/domain/forward/valueobjects"
	"veilink/internal/domain/task"
	"veilink/internal/shared/logger"
)

// Provisioner drives a forward through engine config, dispatch and
// confirmation. The status transitions themselves happen in the result
// handler so that a result arriving while the caller has already timed
// out still lands.
type Provisioner struct {
	forwards         forward.Repository
	agents           agent.Repository
	channel          *appTask.Channel
	configs          *tunnel.ConfigStore
	gost             *tunnel.GostEngine
	realm            *tunnel.RealmEngine
	provisionTimeout time.Duration
	teardownTimeout  time.Duration
	logger           logger.Interface
}

// NewProvisioner creates a new provisioner.
func NewProvisioner(
	forwards forward.Repository,
	agents agent.Repository,
	channel *appTask.Channel,
	configs *tunnel.ConfigStore,
	provisionTimeout time.Duration,
	teardownTimeout time.Duration,
	log logger.Interface,
) *Provisioner {
	return &Provisioner{
		forwards:         forwards,
		agents:           agents,
		channel:          channel,
		configs:          configs,
		gost:             tunnel.NewGostEngine(),
		realm:            tunnel.NewRealmEngine(),
		provisionTimeout: provisionTimeout,
		teardownTimeout:  teardownTimeout,
		logger:           log,
	}
}

// engineFor returns the engine a method needs, nil for direct methods.
func (p *Provisioner) engineFor(f *forward.Forward) tunnel.Engine {
	switch {
	case f.Method().UsesChainedEngine():
		return p.gost
	case f.Method().UsesPassthroughEngine():
		return p.realm
	default:
		return nil
	}
}

// Provision resolves the target, writes the engine config fragment,
// dispatches the add task and waits for the agent's confirmation. The
// wait is bounded in minutes: the agent may need to bind a socket before
// it can answer with the concrete port.
func (p *Provisioner) Provision(ctx context.Context, f *forward.Forward) (*forward.Forward, error) {
	if f.TargetType() == vo.TargetAgent && f.Target() == "" {
		target, err := p.agents.GetByID(ctx, f.TargetAgentID())
		if err != nil {
			return nil, fmt.Errorf("failed to resolve target agent: %w", err)
		}
		f.ResolveTarget(target.Address(), 0)
		if err := p.forwards.Update(ctx, f); err != nil {
			return nil, err
		}
	}

	if engine := p.engineFor(f); engine != nil {
		err := p.configs.Mutate(ctx, f.AgentID(), engine, func(document json.RawMessage) (json.RawMessage, error) {
			return engine.Add(document, f)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to write engine config: %w", err)
		}
	}

	payload := forwardPayload(task.ForwardActionAdd, f)
	t, err := p.channel.Dispatch(ctx, f.AgentID(), task.TypeForward, payload)
	if err != nil {
		return nil, err
	}

	result, err := p.channel.AwaitResult(ctx, t.ID(), p.provisionTimeout)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("agent rejected forward %d: %s", f.ID(), result.Extra)
	}

	// The result handler applied the transition; reload for the bound
	// port.
	return p.forwards.GetByID(ctx, f.ID())
}

// Teardown removes a forward. A forward that never bound is marked
// deleted without contacting the agent; engine fragment removal is
// best-effort so a half-written config never blocks deletion.
func (p *Provisioner) Teardown(ctx context.Context, f *forward.Forward) error {
	if !f.EverBound() {
		f.MarkDeleted()
		return p.forwards.Update(ctx, f)
	}

	if engine := p.engineFor(f); engine != nil {
		err := p.configs.Mutate(ctx, f.AgentID(), engine, func(document json.RawMessage) (json.RawMessage, error) {
			updated, removeErr := engine.Remove(document, f.ID())
			if removeErr != nil {
				if errors.Is(removeErr, forward.ErrEngineConfig) {
					p.logger.Warnw("engine fragment missing on teardown, proceeding",
						"forward_id", f.ID(), "engine", engine.Key(), "error", removeErr)
					return updated, nil
				}
				return nil, removeErr
			}
			return updated, nil
		})
		if err != nil {
			p.logger.Errorw("failed to update engine config on teardown",
				"forward_id", f.ID(), "error", err)
		}
	}

	payload := forwardPayload(task.ForwardActionDelete, f)
	t, err := p.channel.Dispatch(ctx, f.AgentID(), task.TypeForward, payload)
	if err != nil {
		return err
	}

	result, err := p.channel.AwaitResult(ctx, t.ID(), p.teardownTimeout)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("agent rejected forward %d removal: %s", f.ID(), result.Extra)
	}
	return nil
}

func forwardPayload(action string, f *forward.Forward) task.ForwardPayload {
	options, _ := json.Marshal(f.Options())
	return task.ForwardPayload{
		Action:     action,
		ForwardID:  f.ID(),
		Method:     string(f.Method()),
		Options:    options,
		AgentPort:  f.AgentPort(),
		TargetPort: f.TargetPort(),
		Target:     f.Target(),
	}
}
