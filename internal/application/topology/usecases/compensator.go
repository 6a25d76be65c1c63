package usecases

import (
	"context"

	forwarduc "veilink/internal/application/forward/usecases"
)

// BillingCompensator adapts the teardown use cases to the billing
// engine's compensation port. Teardowns run forced: the owner did not
// ask for them and must not be able to veto them.
type BillingCompensator struct {
	forward *forwarduc.TeardownForwardUseCase
	chain   *TeardownChainUseCase
}

// NewBillingCompensator creates a new billing compensator.
func NewBillingCompensator(forward *forwarduc.TeardownForwardUseCase, chain *TeardownChainUseCase) *BillingCompensator {
	return &BillingCompensator{forward: forward, chain: chain}
}

func (c *BillingCompensator) TeardownForward(ctx context.Context, forwardID uint) error {
	return c.forward.Execute(ctx, forwarduc.TeardownForwardCommand{ForwardID: forwardID, Force: true})
}

func (c *BillingCompensator) TeardownChain(ctx context.Context, forwardID uint) error {
	return c.chain.Execute(ctx, TeardownChainCommand{ForwardID: forwardID, Force: true})
}
