package billing

import (
	"context"
	"fmt"
	"time"

	"veilink/internal/domain/agent"
	"veilink/internal/domain/billing"
	"veilink/internal/domain/forward"
	"veilink/internal/shared/logger"
)

// Compensator cuts service for a forward (or its whole chain) once its
// owner can no longer pay. Implemented by the topology teardown use case;
// the indirection keeps billing free of the provisioning dependencies.
type Compensator interface {
	TeardownForward(ctx context.Context, forwardID uint) error
	TeardownChain(ctx context.Context, forwardID uint) error
}

// TxRunner runs a function inside a database transaction. Satisfied by
// db.TransactionManager.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Biller turns traffic windows into wallet postings. Sub-unit amounts on
// young windows are deferred through the pending store; a failed debit
// triggers compensating teardown instead of a retry.
type Biller struct {
	wallets  billing.WalletRepository
	logs     billing.BalanceLogRepository
	pending  billing.PendingWindowStore
	prices   *PriceProvider
	agents   agent.Repository
	forwards forward.Repository
	txm      TxRunner
	comp     Compensator
	logger   logger.Interface
}

// NewBiller creates a new biller.
func NewBiller(
	wallets billing.WalletRepository,
	logs billing.BalanceLogRepository,
	pending billing.PendingWindowStore,
	prices *PriceProvider,
	agents agent.Repository,
	forwards forward.Repository,
	txm TxRunner,
	comp Compensator,
	log logger.Interface,
) *Biller {
	return &Biller{
		wallets:  wallets,
		logs:     logs,
		pending:  pending,
		prices:   prices,
		agents:   agents,
		forwards: forwards,
		txm:      txm,
		comp:     comp,
		logger:   log,
	}
}

// Bill merges the window with any carried-over traffic, then either
// defers or posts the charge. The merged window is written back before
// the billing decision so no bytes are lost if this process dies
// mid-cycle.
func (b *Biller) Bill(ctx context.Context, f *forward.Forward, window billing.PendingWindow) error {
	merged, err := b.carryOver(ctx, f.ID(), window)
	if err != nil {
		return err
	}

	price := b.prices.EffectivePrice(ctx, f.AgentID())
	if merged.ShouldDefer(price) {
		b.logger.Debugw("billing deferred",
			"forward_id", f.ID(),
			"traffic", merged.Traffic,
			"span", merged.Span().String(),
		)
		return nil
	}

	traffic, amount := price.Cost(merged.Traffic)
	memo := fmt.Sprintf("traffic charge for forward %d: %.4f %s at %.4f/%s",
		f.ID(), traffic, price.Unit, price.Amount, price.Unit)
	metadata := map[string]any{
		"forward_id":    f.ID(),
		"agent_id":      f.AgentID(),
		"traffic_bytes": merged.Traffic,
		"traffic_units": traffic,
		"unit":          string(price.Unit),
		"unit_price":    price.Amount,
		"amount":        amount,
		"window_start":  merged.StartTime.Format(time.RFC3339),
		"window_end":    merged.EndTime.Format(time.RFC3339),
	}

	if err := b.debit(ctx, f.UserID(), amount, memo, metadata); err != nil {
		b.logger.Errorw("debit failed, cutting service",
			"forward_id", f.ID(), "user_id", f.UserID(), "amount", amount, "error", err)
		b.compensate(ctx, f)
		return err
	}

	if err := b.pending.Delete(ctx, f.ID()); err != nil {
		b.logger.Errorw("failed to clear pending window after debit", "forward_id", f.ID(), "error", err)
	}

	b.credit(ctx, f, amount, metadata)
	return nil
}

// carryOver merges the new window with the stored pending one and writes
// the merge back, overwriting. Merging widens the span and sums traffic,
// so replaying the merge with the same stored state is idempotent.
func (b *Biller) carryOver(ctx context.Context, forwardID uint, window billing.PendingWindow) (billing.PendingWindow, error) {
	stored, ok, err := b.pending.Get(ctx, forwardID)
	if err != nil {
		return billing.PendingWindow{}, err
	}

	merged := window
	if ok {
		merged = stored.Merge(window)
	}
	if err := b.pending.Put(ctx, forwardID, merged); err != nil {
		return billing.PendingWindow{}, err
	}
	return merged, nil
}

// debit charges the forward owner inside one transaction holding the
// wallet row lock, so concurrent debits against one wallet serialize and
// the balance floor holds.
func (b *Biller) debit(ctx context.Context, userID uint, amount float64, memo string, metadata map[string]any) error {
	return b.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		wallet, err := b.wallets.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := wallet.Debit(amount); err != nil {
			return err
		}
		if err := b.wallets.Update(ctx, wallet); err != nil {
			return err
		}

		posting := billing.NewBalanceLog(userID, billing.LogDebit, amount, wallet.Balance(), memo, metadata)
		return b.logs.Create(ctx, posting)
	})
}

// credit pays the agent owner. A separate posting, not a transfer: a
// failed credit is logged and does not unwind the debit.
func (b *Biller) credit(ctx context.Context, f *forward.Forward, amount float64, metadata map[string]any) {
	a, err := b.agents.GetByID(ctx, f.AgentID())
	if err != nil {
		b.logger.Errorw("failed to load agent for income credit", "agent_id", f.AgentID(), "error", err)
		return
	}

	memo := fmt.Sprintf("relay income from forward %d on agent %s", f.ID(), a.Name())
	err = b.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		wallet, err := b.wallets.GetByUserIDForUpdate(ctx, a.OwnerID())
		if err != nil {
			return err
		}
		if err := wallet.Credit(amount); err != nil {
			return err
		}
		if err := b.wallets.Update(ctx, wallet); err != nil {
			return err
		}

		posting := billing.NewBalanceLog(a.OwnerID(), billing.LogCredit, amount, wallet.Balance(), memo, metadata)
		return b.logs.Create(ctx, posting)
	})
	if err != nil {
		b.logger.Errorw("failed to credit agent owner",
			"agent_id", f.AgentID(), "owner_id", a.OwnerID(), "amount", amount, "error", err)
	}
}

// compensate cuts service: the whole chain when the forward is linked
// into one, just the forward otherwise. Service is cut rather than
// allowed to run unbilled; there is no retry.
func (b *Biller) compensate(ctx context.Context, f *forward.Forward) {
	inChain := f.NextForwardID() != nil
	if !inChain {
		upstream, err := b.forwards.FindByNextForwardID(ctx, f.ID())
		if err != nil {
			b.logger.Errorw("failed to check chain membership", "forward_id", f.ID(), "error", err)
		}
		inChain = upstream != nil
	}

	var err error
	if inChain {
		err = b.comp.TeardownChain(ctx, f.ID())
	} else {
		err = b.comp.TeardownForward(ctx, f.ID())
	}
	if err != nil {
		b.logger.Errorw("compensating teardown failed", "forward_id", f.ID(), "chain", inChain, "error", err)
	}
}
