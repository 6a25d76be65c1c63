package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"veilink/internal/application/tunnel"
	"veilink/internal/domain/forward"
	"veilink/internal/domain/task"
	"veilink/internal/shared/logger"
)

// bindExtra is the structured part of a successful add result. Older
// agents report the bound port as "port"; current ones as "agentPort".
type bindExtra struct {
	AgentPort uint16 `json:"agentPort"`
	Port      uint16 `json:"port"`
}

func (b bindExtra) boundPort() uint16 {
	if b.AgentPort != 0 {
		return b.AgentPort
	}
	return b.Port
}

// ResultHandler applies confirmed forward task results to the Forward
// row and, for chained engines, rewrites the addr sentinel to the bound
// port. Transitions are guarded in the aggregate, so a redelivered
// result is a no-op here.
type ResultHandler struct {
	forwards forward.Repository
	configs  *tunnel.ConfigStore
	gost     *tunnel.GostEngine
	logger   logger.Interface
}

// NewResultHandler creates a new forward result handler.
func NewResultHandler(forwards forward.Repository, configs *tunnel.ConfigStore, log logger.Interface) *ResultHandler {
	return &ResultHandler{
		forwards: forwards,
		configs:  configs,
		gost:     tunnel.NewGostEngine(),
		logger:   log,
	}
}

// Handle is registered with the task subscriber for forward tasks.
func (h *ResultHandler) Handle(ctx context.Context, t *task.Task) error {
	decoded, err := task.DecodePayload(t.Type(), t.Payload())
	if err != nil {
		return fmt.Errorf("task %s: %w", t.ID(), err)
	}
	payload, ok := decoded.(*task.ForwardPayload)
	if !ok {
		return fmt.Errorf("task %s is not a forward task", t.ID())
	}

	f, err := h.forwards.GetByID(ctx, payload.ForwardID)
	if err != nil {
		return fmt.Errorf("forward %d for task %s: %w", payload.ForwardID, t.ID(), err)
	}

	result := t.Result()
	switch payload.Action {
	case task.ForwardActionAdd:
		return h.handleAdd(ctx, f, result)
	case task.ForwardActionDelete:
		return h.handleDelete(ctx, f, result)
	default:
		return fmt.Errorf("unknown forward action %q in task %s", payload.Action, t.ID())
	}
}

func (h *ResultHandler) handleAdd(ctx context.Context, f *forward.Forward, result *task.Result) error {
	if !result.Success {
		if !f.MarkCreateFailed() {
			return nil
		}
		h.logger.Warnw("forward create failed on agent", "forward_id", f.ID(), "reason", result.Extra)
		return h.forwards.Update(ctx, f)
	}

	boundPort := decodeBoundPort(result.Extra)
	requestedAny := f.AgentPort() == 0

	if !f.MarkRunning(boundPort) {
		return nil
	}
	if err := h.forwards.Update(ctx, f); err != nil {
		return err
	}

	h.logger.Infow("forward running", "forward_id", f.ID(), "agent_port", f.AgentPort())

	// The gost service was written with the forward id as its addr
	// sentinel when the port was still unknown.
	if requestedAny && f.Method().UsesChainedEngine() && f.AgentPort() != 0 {
		err := h.configs.Mutate(ctx, f.AgentID(), h.gost, func(document json.RawMessage) (json.RawMessage, error) {
			return h.gost.RewritePort(document, f.ID(), f.AgentPort())
		})
		if err != nil {
			h.logger.Errorw("failed to rewrite gost addr sentinel",
				"forward_id", f.ID(), "port", f.AgentPort(), "error", err)
		}
	}
	return nil
}

func (h *ResultHandler) handleDelete(ctx context.Context, f *forward.Forward, result *task.Result) error {
	if !result.Success {
		h.logger.Warnw("forward delete failed on agent", "forward_id", f.ID(), "reason", result.Extra)
		return nil
	}
	if !f.MarkStopped() {
		return nil
	}
	f.MarkDeleted()
	return h.forwards.Update(ctx, f)
}

// decodeBoundPort extracts the bound port from the result extra, which
// agents send as base64-encoded JSON. Plain JSON is accepted too; a
// missing or unreadable extra yields 0, keeping the requested port.
func decodeBoundPort(extra string) uint16 {
	if extra == "" {
		return 0
	}

	raw := []byte(extra)
	if decoded, err := base64.StdEncoding.DecodeString(extra); err == nil {
		raw = decoded
	}

	var bind bindExtra
	if err := json.Unmarshal(raw, &bind); err != nil {
		return 0
	}
	return bind.boundPort()
}
