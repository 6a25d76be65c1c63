// Package usecases holds the agent management use cases.
package usecases

import (
	"context"

	"veilink/internal/domain/agent"
	"veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
)

// RegisterAgentCommand represents the input for registering an agent.
type RegisterAgentCommand struct {
	Name          string
	Address       string
	OwnerID       uint
	PortRangeFrom uint16
	PortRangeTo   uint16
}

// RegisterAgentResult represents the output of registering an agent.
type RegisterAgentResult struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

// RegisterAgentUseCase handles agent registration.
type RegisterAgentUseCase struct {
	agents agent.Repository
	logger logger.Interface
}

// NewRegisterAgentUseCase creates a new RegisterAgentUseCase.
func NewRegisterAgentUseCase(agents agent.Repository, log logger.Interface) *RegisterAgentUseCase {
	return &RegisterAgentUseCase{agents: agents, logger: log}
}

// Execute registers a new agent in offline state; it goes online on its
// first heartbeat.
func (uc *RegisterAgentUseCase) Execute(ctx context.Context, cmd RegisterAgentCommand) (*RegisterAgentResult, error) {
	a, err := agent.NewAgent(cmd.Name, cmd.Address, cmd.OwnerID, cmd.PortRangeFrom, cmd.PortRangeTo)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.agents.Create(ctx, a); err != nil {
		return nil, err
	}

	uc.logger.Infow("agent registered", "agent_id", a.ID(), "name", a.Name())
	return &RegisterAgentResult{
		ID:      a.ID(),
		Name:    a.Name(),
		Address: a.Address(),
		Status:  string(a.Status()),
	}, nil
}
