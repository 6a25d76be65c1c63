// Package usecases holds the forward lifecycle use cases.
package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"veilink/internal/application/forward/services"
	"veilink/internal/domain/agent"
	"veilink/internal/domain/forward"
	vo "veilink/internal/domain/forward/valueobjects"
	"veilink/internal/domain/user"
	"veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
)

// CreateForwardCommand represents the input for creating a forward.
type CreateForwardCommand struct {
	UserID        uint
	AgentID       uint
	Method        string
	Channel       string
	ProxyProtocol bool
	AgentPort     uint16
	TargetPort    uint16
	Target        string
	TargetType    string
	TargetAgentID uint

	// Listen and Forward override the negotiated sub-protocols; the
	// topology resolver fills these for chain hops. Empty means tcp.
	Listen  string
	Forward string
}

// CreateForwardResult represents the output of creating a forward.
type CreateForwardResult struct {
	ID        uint   `json:"id"`
	AgentID   uint   `json:"agent_id"`
	AgentPort uint16 `json:"agent_port"`
	Status    string `json:"status"`
}

// CreateForwardUseCase validates access, creates the forward row and
// provisions it on the agent.
type CreateForwardUseCase struct {
	forwards    forward.Repository
	agents      agent.Repository
	shares      agent.ShareRepository
	users       user.Repository
	provisioner *services.Provisioner
	logger      logger.Interface
}

// NewCreateForwardUseCase creates a new CreateForwardUseCase.
func NewCreateForwardUseCase(
	forwards forward.Repository,
	agents agent.Repository,
	shares agent.ShareRepository,
	users user.Repository,
	provisioner *services.Provisioner,
	log logger.Interface,
) *CreateForwardUseCase {
	return &CreateForwardUseCase{
		forwards:    forwards,
		agents:      agents,
		shares:      shares,
		users:       users,
		provisioner: provisioner,
		logger:      log,
	}
}

// Execute creates and provisions a forward.
func (uc *CreateForwardUseCase) Execute(ctx context.Context, cmd CreateForwardCommand) (*CreateForwardResult, error) {
	uc.logger.Infow("executing create forward use case", "user_id", cmd.UserID, "agent_id", cmd.AgentID)

	if _, err := CheckAgentAccess(ctx, uc.users, uc.agents, uc.shares, cmd.AgentID, cmd.UserID, cmd.AgentPort); err != nil {
		return nil, err
	}

	if cmd.AgentPort != 0 {
		conflict, err := uc.forwards.FindRunningByAgentPort(ctx, cmd.AgentID, cmd.AgentPort)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return nil, errors.NewConflictError(
				fmt.Sprintf("port %d already in use on agent %d", cmd.AgentPort, cmd.AgentID)).
				WithErr(forward.ErrPortConflict)
		}
	}

	options := forward.Options{
		Channel:       cmd.Channel,
		ProxyProtocol: cmd.ProxyProtocol,
		Listen:        defaultProtocol(cmd.Listen),
		Forward:       defaultProtocol(cmd.Forward),
	}

	f, err := forward.NewForward(
		cmd.UserID,
		cmd.AgentID,
		vo.Method(cmd.Method),
		options,
		cmd.AgentPort,
		cmd.TargetPort,
		cmd.Target,
		vo.TargetType(cmd.TargetType),
		cmd.TargetAgentID,
	)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.forwards.Create(ctx, f); err != nil {
		return nil, err
	}

	provisioned, err := uc.provisioner.Provision(ctx, f)
	if err != nil {
		uc.logger.Errorw("forward provisioning failed", "forward_id", f.ID(), "error", err)
		return nil, err
	}

	uc.logger.Infow("forward created", "forward_id", provisioned.ID(), "agent_port", provisioned.AgentPort())
	return &CreateForwardResult{
		ID:        provisioned.ID(),
		AgentID:   provisioned.AgentID(),
		AgentPort: provisioned.AgentPort(),
		Status:    string(provisioned.Status()),
	}, nil
}

func defaultProtocol(p string) string {
	if p == "" {
		return "tcp"
	}
	return p
}

// CheckAgentAccess enforces the placement rules shared by single
// forwards and chain hops: the agent must exist, be online, be owned by
// or shared with the user (admins may place on any agent), and allow
// the requested port.
func CheckAgentAccess(
	ctx context.Context,
	users user.Repository,
	agents agent.Repository,
	shares agent.ShareRepository,
	agentID, userID uint,
	port uint16,
) (*agent.Agent, error) {
	a, err := agents.GetByID(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, agent.ErrAgentNotFound) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("agent %d not found", agentID)).
				WithErr(agent.ErrAgentNotFound)
		}
		return nil, err
	}
	if !a.IsOnline() {
		return nil, errors.NewConflictError(fmt.Sprintf("agent %d is offline", agentID)).
			WithErr(agent.ErrAgentOffline)
	}

	if a.OwnerID() != userID {
		requester, err := users.GetByID(ctx, userID)
		if err != nil && !stderrors.Is(err, user.ErrUserNotFound) {
			return nil, err
		}
		if requester == nil || !requester.IsAdmin() {
			shared, err := shares.IsSharedWith(ctx, agentID, userID)
			if err != nil {
				return nil, err
			}
			if !shared {
				return nil, errors.NewForbiddenError(
					fmt.Sprintf("agent %d is not yours or shared with you", agentID)).
					WithErr(agent.ErrPermissionDenied)
			}
		}
	}

	if !a.AllowsPort(port) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("port %d is outside agent %d's allowed range", port, agentID)).
			WithErr(agent.ErrPortOutOfRange)
	}
	return a, nil
}
