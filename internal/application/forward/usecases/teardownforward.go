package usecases

import (
	"context"

	"veilink/internal/application/forward/services"
	"veilink/internal/domain/forward"
	"veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
)

// TeardownForwardCommand represents the input for tearing down a forward.
type TeardownForwardCommand struct {
	ForwardID uint
	UserID    uint

	// Force skips the ownership check; billing-triggered teardown runs
	// with it set.
	Force bool
}

// TeardownForwardUseCase removes a forward from its agent and marks it
// deleted.
type TeardownForwardUseCase struct {
	forwards    forward.Repository
	provisioner *services.Provisioner
	logger      logger.Interface
}

// NewTeardownForwardUseCase creates a new TeardownForwardUseCase.
func NewTeardownForwardUseCase(
	forwards forward.Repository,
	provisioner *services.Provisioner,
	log logger.Interface,
) *TeardownForwardUseCase {
	return &TeardownForwardUseCase{
		forwards:    forwards,
		provisioner: provisioner,
		logger:      log,
	}
}

// Execute tears down a forward.
func (uc *TeardownForwardUseCase) Execute(ctx context.Context, cmd TeardownForwardCommand) error {
	f, err := uc.forwards.GetByID(ctx, cmd.ForwardID)
	if err != nil {
		return err
	}
	if f.IsDeleted() {
		return nil
	}
	if !cmd.Force && f.UserID() != cmd.UserID {
		return errors.NewForbiddenError("forward belongs to another user")
	}

	if err := uc.provisioner.Teardown(ctx, f); err != nil {
		uc.logger.Errorw("forward teardown failed", "forward_id", f.ID(), "error", err)
		return err
	}

	uc.logger.Infow("forward torn down", "forward_id", f.ID())
	return nil
}
