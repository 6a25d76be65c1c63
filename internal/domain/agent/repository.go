package agent

import "context"

// Repository is the persistence port for agents.
type Repository interface {
	Create(ctx context.Context, a *Agent) error
	GetByID(ctx context.Context, id uint) (*Agent, error)
	List(ctx context.Context) ([]*Agent, error)
	Update(ctx context.Context, a *Agent) error
	UpdateStatus(ctx context.Context, id uint, status Status) error
}

// ShareRepository answers whether an agent has been shared with a user.
type ShareRepository interface {
	IsSharedWith(ctx context.Context, agentID, userID uint) (bool, error)
	Share(ctx context.Context, agentID, userID uint) error
	Unshare(ctx context.Context, agentID, userID uint) error
}
