package billing

import (
	"context"
	"errors"
	"time"

	"veilink/internal/domain/billing"
	"veilink/internal/shared/logger"
)

// WalletView is the read model for a wallet.
type WalletView struct {
	UserID    uint      `json:"user_id"`
	Balance   float64   `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BalanceLogView is the read model for a ledger posting.
type BalanceLogView struct {
	ID        uint           `json:"id"`
	Type      string         `json:"type"`
	Amount    float64        `json:"amount"`
	Balance   float64        `json:"balance"`
	Memo      string         `json:"memo"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// WalletQueryService answers wallet and ledger reads.
type WalletQueryService struct {
	wallets billing.WalletRepository
	logs    billing.BalanceLogRepository
	logger  logger.Interface
}

// NewWalletQueryService creates a new WalletQueryService.
func NewWalletQueryService(
	wallets billing.WalletRepository,
	logs billing.BalanceLogRepository,
	log logger.Interface,
) *WalletQueryService {
	return &WalletQueryService{wallets: wallets, logs: logs, logger: log}
}

// GetWallet returns the user's wallet, creating an empty one on first
// access so every user has a balance to charge against.
func (s *WalletQueryService) GetWallet(ctx context.Context, userID uint) (*WalletView, error) {
	w, err := s.wallets.GetByUserID(ctx, userID)
	if errors.Is(err, billing.ErrWalletNotFound) {
		w = billing.NewWallet(userID)
		if err := s.wallets.Create(ctx, w); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return &WalletView{
		UserID:    w.UserID(),
		Balance:   w.Balance(),
		UpdatedAt: w.UpdatedAt(),
	}, nil
}

// ListBalanceLogs returns the user's ledger postings, newest first.
func (s *WalletQueryService) ListBalanceLogs(ctx context.Context, userID uint, limit, offset int) ([]BalanceLogView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.logs.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]BalanceLogView, 0, len(list))
	for _, l := range list {
		views = append(views, BalanceLogView{
			ID:        l.ID(),
			Type:      string(l.Type()),
			Amount:    l.Amount(),
			Balance:   l.Balance(),
			Memo:      l.Memo(),
			Metadata:  l.Metadata(),
			CreatedAt: l.CreatedAt(),
		})
	}
	return views, nil
}
