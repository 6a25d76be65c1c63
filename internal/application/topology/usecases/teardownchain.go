package usecases

import (
	"context"

	forwarduc "veilink/internal/application/forward/usecases"
	"veilink/internal/domain/forward"
	"veilink/internal/shared/logger"
)

// TeardownChainCommand represents the input for tearing down a chain.
type TeardownChainCommand struct {
	// ForwardID may reference any hop of the chain.
	ForwardID uint
	UserID    uint
	Force     bool
}

// TeardownChainUseCase removes every hop of the chain a forward belongs
// to, entry hop first so traffic stops before inner hops disappear.
type TeardownChainUseCase struct {
	forwards forward.Repository
	teardown *forwarduc.TeardownForwardUseCase
	logger   logger.Interface
}

// NewTeardownChainUseCase creates a new TeardownChainUseCase.
func NewTeardownChainUseCase(
	forwards forward.Repository,
	teardown *forwarduc.TeardownForwardUseCase,
	log logger.Interface,
) *TeardownChainUseCase {
	return &TeardownChainUseCase{forwards: forwards, teardown: teardown, logger: log}
}

// Execute walks to the chain head, then tears down hop by hop toward the
// tail. Hop failures are logged and the walk continues: a dead agent
// must not leave the rest of the chain running.
func (uc *TeardownChainUseCase) Execute(ctx context.Context, cmd TeardownChainCommand) error {
	head, err := uc.findHead(ctx, cmd.ForwardID)
	if err != nil {
		return err
	}

	uc.logger.Infow("tearing down chain", "head_forward_id", head.ID())

	current := head
	for current != nil {
		nextID := current.NextForwardID()

		err := uc.teardown.Execute(ctx, forwarduc.TeardownForwardCommand{
			ForwardID: current.ID(),
			UserID:    cmd.UserID,
			Force:     cmd.Force,
		})
		if err != nil {
			uc.logger.Errorw("chain hop teardown failed, continuing",
				"forward_id", current.ID(), "error", err)
		}

		if nextID == nil {
			break
		}
		current, err = uc.forwards.GetByID(ctx, *nextID)
		if err != nil {
			uc.logger.Errorw("failed to load next chain hop", "forward_id", *nextID, "error", err)
			break
		}
	}
	return nil
}

// findHead walks upstream until no forward links to the current one.
func (uc *TeardownChainUseCase) findHead(ctx context.Context, forwardID uint) (*forward.Forward, error) {
	current, err := uc.forwards.GetByID(ctx, forwardID)
	if err != nil {
		return nil, err
	}

	for {
		upstream, err := uc.forwards.FindByNextForwardID(ctx, current.ID())
		if err != nil {
			return nil, err
		}
		if upstream == nil {
			return current, nil
		}
		current = upstream
	}
}
