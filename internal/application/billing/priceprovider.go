// Package billing implements the traffic ledger and the billing engine:
// coalesced usage rows, carry-over windows, wallet postings, and the
// compensating teardown when a wallet runs dry.
package billing

import (
	"context"

	"veilink/internal/domain/agent"
	"veilink/internal/domain/billing"
	"veilink/internal/shared/logger"
)

// PriceProvider resolves the effective traffic price for an agent: the
// agent's own override when set, the global default otherwise.
type PriceProvider struct {
	agents       agent.Repository
	defaultPrice billing.Price
	logger       logger.Interface
}

// NewPriceProvider creates a new price provider.
func NewPriceProvider(agents agent.Repository, defaultPrice billing.Price, log logger.Interface) *PriceProvider {
	return &PriceProvider{agents: agents, defaultPrice: defaultPrice, logger: log}
}

// EffectivePrice never fails: an unreadable agent falls back to the
// default price so billing keeps running.
func (p *PriceProvider) EffectivePrice(ctx context.Context, agentID uint) billing.Price {
	a, err := p.agents.GetByID(ctx, agentID)
	if err != nil {
		p.logger.Warnw("failed to load agent for pricing, using default", "agent_id", agentID, "error", err)
		return p.defaultPrice
	}

	amount, unit, ok := a.PriceOverride()
	if !ok {
		return p.defaultPrice
	}

	tu := billing.TrafficUnit(unit)
	if !tu.IsValid() {
		p.logger.Warnw("agent has invalid price unit, using default", "agent_id", agentID, "unit", unit)
		return p.defaultPrice
	}
	return billing.Price{Amount: amount, Unit: tu}
}
