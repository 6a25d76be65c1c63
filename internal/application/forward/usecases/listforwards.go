package usecases

import (
	"context"
	"time"

	"veilink/internal/domain/forward"
	"veilink/internal/shared/logger"
)

// ForwardView is the read model returned by forward queries.
type ForwardView struct {
	ID            uint      `json:"id"`
	AgentID       uint      `json:"agent_id"`
	Method        string    `json:"method"`
	AgentPort     uint16    `json:"agent_port"`
	Target        string    `json:"target"`
	TargetPort    uint16    `json:"target_port"`
	TargetType    string    `json:"target_type"`
	NextForwardID *uint     `json:"next_forward_id,omitempty"`
	Status        string    `json:"status"`
	Download      int64     `json:"download"`
	Upload        int64     `json:"upload"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListForwardsUseCase lists a user's forwards.
type ListForwardsUseCase struct {
	forwards forward.Repository
	logger   logger.Interface
}

// NewListForwardsUseCase creates a new ListForwardsUseCase.
func NewListForwardsUseCase(forwards forward.Repository, log logger.Interface) *ListForwardsUseCase {
	return &ListForwardsUseCase{forwards: forwards, logger: log}
}

// Execute returns the user's non-deleted forwards.
func (uc *ListForwardsUseCase) Execute(ctx context.Context, userID uint) ([]ForwardView, error) {
	list, err := uc.forwards.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ForwardView, 0, len(list))
	for _, f := range list {
		views = append(views, ForwardView{
			ID:            f.ID(),
			AgentID:       f.AgentID(),
			Method:        string(f.Method()),
			AgentPort:     f.AgentPort(),
			Target:        f.Target(),
			TargetPort:    f.TargetPort(),
			TargetType:    string(f.TargetType()),
			NextForwardID: f.NextForwardID(),
			Status:        string(f.Status()),
			Download:      f.Download(),
			Upload:        f.Upload(),
			CreatedAt:     f.CreatedAt(),
		})
	}
	return views, nil
}
