package billing

import "context"

// WalletRepository persists wallets. GetByUserIDForUpdate must take a
// row-level lock when called inside a transaction so concurrent debits
// against one wallet serialize.
type WalletRepository interface {
	Create(ctx context.Context, wallet *Wallet) error
	GetByUserID(ctx context.Context, userID uint) (*Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, userID uint) (*Wallet, error)
	Update(ctx context.Context, wallet *Wallet) error
}

// BalanceLogRepository persists ledger postings.
type BalanceLogRepository interface {
	Create(ctx context.Context, log *BalanceLog) error
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*BalanceLog, error)
}

// PendingWindowStore holds unresolved billing windows keyed by forward,
// surviving process restarts between billing cycles.
type PendingWindowStore interface {
	Get(ctx context.Context, forwardID uint) (PendingWindow, bool, error)
	Put(ctx context.Context, forwardID uint, window PendingWindow) error
	Delete(ctx context.Context, forwardID uint) error
}
