package usecases

import (
	"context"
	"time"

	"veilink/internal/domain/agent"
	"veilink/internal/shared/logger"
)

// AgentView is the read model returned by agent queries.
type AgentView struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Status        string    `json:"status"`
	OwnerID       uint      `json:"owner_id"`
	PortRangeFrom uint16    `json:"port_range_from"`
	PortRangeTo   uint16    `json:"port_range_to"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// ListAgentsUseCase lists the relay agents of the fleet.
type ListAgentsUseCase struct {
	agents agent.Repository
	logger logger.Interface
}

// NewListAgentsUseCase creates a new ListAgentsUseCase.
func NewListAgentsUseCase(agents agent.Repository, log logger.Interface) *ListAgentsUseCase {
	return &ListAgentsUseCase{agents: agents, logger: log}
}

// Execute returns all agents.
func (uc *ListAgentsUseCase) Execute(ctx context.Context) ([]AgentView, error) {
	list, err := uc.agents.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]AgentView, 0, len(list))
	for _, a := range list {
		views = append(views, AgentView{
			ID:            a.ID(),
			Name:          a.Name(),
			Address:       a.Address(),
			Status:        string(a.Status()),
			OwnerID:       a.OwnerID(),
			PortRangeFrom: a.PortRangeFrom(),
			PortRangeTo:   a.PortRangeTo(),
			LastSeenAt:    a.LastSeenAt(),
		})
	}
	return views, nil
}
