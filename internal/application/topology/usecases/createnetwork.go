// Package usecases resolves user-drawn relay graphs into provisioned
// forward chains.
package usecases

import (
	"context"
	"fmt"

	forwarduc "veilink/internal/application/forward/usecases"
	"veilink/internal/domain/agent"
	"veilink/internal/domain/forward"
	"veilink/internal/domain/topology"
	"veilink/internal/domain/user"
	"veilink/internal/shared/logger"
)

// CreateNetworkCommand represents the input for creating a relay network.
type CreateNetworkCommand struct {
	UserID uint
	Graph  topology.Graph
}

// CreateNetworkResult represents the output of creating a relay network.
type CreateNetworkResult struct {
	// ForwardIDs are ordered head to tail.
	ForwardIDs []uint `json:"forward_ids"`
	EntryPort  uint16 `json:"entry_port"`
}

// CreateNetworkUseCase parses, validates and materializes a chain.
// Materialization runs strictly tail to head: each hop must know the
// port its successor actually bound before it can be dispatched, which
// is what makes "any port" (0) requests on intermediate hops work.
type CreateNetworkUseCase struct {
	forwards      forward.Repository
	agents        agent.Repository
	shares        agent.ShareRepository
	users         user.Repository
	createForward *forwarduc.CreateForwardUseCase
	teardown      *forwarduc.TeardownForwardUseCase
	logger        logger.Interface
}

// NewCreateNetworkUseCase creates a new CreateNetworkUseCase.
func NewCreateNetworkUseCase(
	forwards forward.Repository,
	agents agent.Repository,
	shares agent.ShareRepository,
	users user.Repository,
	createForward *forwarduc.CreateForwardUseCase,
	teardown *forwarduc.TeardownForwardUseCase,
	log logger.Interface,
) *CreateNetworkUseCase {
	return &CreateNetworkUseCase{
		forwards:      forwards,
		agents:        agents,
		shares:        shares,
		users:         users,
		createForward: createForward,
		teardown:      teardown,
		logger:        log,
	}
}

// Execute creates every hop of the chain. On a hop failure the hops
// already provisioned downstream are torn down before returning.
func (uc *CreateNetworkUseCase) Execute(ctx context.Context, cmd CreateNetworkCommand) (*CreateNetworkResult, error) {
	chain, err := topology.ParseChain(cmd.Graph)
	if err != nil {
		return nil, err
	}
	if err := chain.Validate(); err != nil {
		return nil, err
	}

	// Every agent must be usable before any hop is touched.
	for i := chain.Head(); i != -1; i = chain.Next(i) {
		hop := chain.Hop(i)
		if _, err := forwarduc.CheckAgentAccess(ctx, uc.users, uc.agents, uc.shares, hop.SourceAgentID, cmd.UserID, hop.AgentPort); err != nil {
			return nil, fmt.Errorf("agent %d: %w", hop.SourceAgentID, err)
		}
	}

	uc.logger.Infow("materializing chain", "user_id", cmd.UserID, "hops", chain.Len())

	created := make([]uint, 0, chain.Len()) // tail first
	var downstreamID uint
	var downstreamPort uint16

	for i := chain.Tail(); i != -1; i = chain.Prev(i) {
		hop := chain.Hop(i)

		forwardCmd := forwarduc.CreateForwardCommand{
			UserID:        cmd.UserID,
			AgentID:       hop.SourceAgentID,
			Method:        string(hop.Method),
			Channel:       hop.Channel,
			ProxyProtocol: hop.ProxyProtocol,
			AgentPort:     hop.AgentPort,
			TargetPort:    hop.TargetPort,
			Target:        hop.Target,
			TargetType:    string(hop.TargetType),
			TargetAgentID: hop.TargetAgentID,
			Listen:        hop.Listen,
			Forward:       hop.Forward,
		}
		if downstreamID != 0 {
			// The successor is provisioned; dial the port it bound.
			forwardCmd.TargetPort = downstreamPort
		}

		result, err := uc.createForward.Execute(ctx, forwardCmd)
		if err != nil {
			uc.logger.Errorw("chain hop failed, rolling back",
				"agent_id", hop.SourceAgentID, "provisioned", len(created), "error", err)
			uc.rollback(ctx, cmd.UserID, created)
			return nil, err
		}

		if downstreamID != 0 {
			if err := uc.link(ctx, result.ID, downstreamID); err != nil {
				uc.rollback(ctx, cmd.UserID, append(created, result.ID))
				return nil, err
			}
		}

		created = append(created, result.ID)
		downstreamID = result.ID
		downstreamPort = result.AgentPort
	}

	// created is tail first; flip to head first.
	ids := make([]uint, 0, len(created))
	for i := len(created) - 1; i >= 0; i-- {
		ids = append(ids, created[i])
	}

	uc.logger.Infow("chain materialized", "forward_ids", ids, "entry_port", downstreamPort)
	return &CreateNetworkResult{ForwardIDs: ids, EntryPort: downstreamPort}, nil
}

func (uc *CreateNetworkUseCase) link(ctx context.Context, id, nextID uint) error {
	f, err := uc.forwards.GetByID(ctx, id)
	if err != nil {
		return err
	}
	f.LinkNext(nextID)
	return uc.forwards.Update(ctx, f)
}

// rollback tears down partially materialized hops, best effort.
func (uc *CreateNetworkUseCase) rollback(ctx context.Context, userID uint, forwardIDs []uint) {
	for _, id := range forwardIDs {
		err := uc.teardown.Execute(ctx, forwarduc.TeardownForwardCommand{ForwardID: id, UserID: userID})
		if err != nil {
			uc.logger.Errorw("rollback teardown failed", "forward_id", id, "error", err)
		}
	}
}
