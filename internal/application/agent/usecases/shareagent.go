package usecases

import (
	"context"
	"errors"

	"veilink/internal/domain/agent"
	apperrors "veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
)

// ShareAgentCommand represents the input for sharing or unsharing an agent.
type ShareAgentCommand struct {
	AgentID      uint
	OwnerID      uint
	TargetUserID uint
}

// ShareAgentUseCase grants another user access to an agent. Only the
// owner may share.
type ShareAgentUseCase struct {
	agents agent.Repository
	shares agent.ShareRepository
	logger logger.Interface
}

// NewShareAgentUseCase creates a new ShareAgentUseCase.
func NewShareAgentUseCase(agents agent.Repository, shares agent.ShareRepository, log logger.Interface) *ShareAgentUseCase {
	return &ShareAgentUseCase{agents: agents, shares: shares, logger: log}
}

// Execute shares the agent with the target user.
func (uc *ShareAgentUseCase) Execute(ctx context.Context, cmd ShareAgentCommand) error {
	a, err := uc.agents.GetByID(ctx, cmd.AgentID)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			return apperrors.NewNotFoundError("agent not found")
		}
		return err
	}
	if a.OwnerID() != cmd.OwnerID {
		return apperrors.NewForbiddenError("only the owner can share an agent")
	}
	if cmd.TargetUserID == cmd.OwnerID {
		return apperrors.NewValidationError("cannot share an agent with its owner")
	}

	if err := uc.shares.Share(ctx, cmd.AgentID, cmd.TargetUserID); err != nil {
		return err
	}

	uc.logger.Infow("agent shared", "agent_id", cmd.AgentID, "user_id", cmd.TargetUserID)
	return nil
}

// UnshareAgentUseCase revokes a user's access to an agent.
type UnshareAgentUseCase struct {
	agents agent.Repository
	shares agent.ShareRepository
	logger logger.Interface
}

// NewUnshareAgentUseCase creates a new UnshareAgentUseCase.
func NewUnshareAgentUseCase(agents agent.Repository, shares agent.ShareRepository, log logger.Interface) *UnshareAgentUseCase {
	return &UnshareAgentUseCase{agents: agents, shares: shares, logger: log}
}

// Execute revokes the share. Forwards the target user already created
// on the agent keep running; revocation only blocks new ones.
func (uc *UnshareAgentUseCase) Execute(ctx context.Context, cmd ShareAgentCommand) error {
	a, err := uc.agents.GetByID(ctx, cmd.AgentID)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			return apperrors.NewNotFoundError("agent not found")
		}
		return err
	}
	if a.OwnerID() != cmd.OwnerID {
		return apperrors.NewForbiddenError("only the owner can unshare an agent")
	}

	if err := uc.shares.Unshare(ctx, cmd.AgentID, cmd.TargetUserID); err != nil {
		return err
	}

	uc.logger.Infow("agent unshared", "agent_id", cmd.AgentID, "user_id", cmd.TargetUserID)
	return nil
}
