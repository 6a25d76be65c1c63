package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"veilink/internal/domain/billing"
	"veilink/internal/infrastructure/persistence/mappers"
	"veilink/internal/infrastructure/persistence/models"
	"veilink/internal/shared/db"
	"veilink/internal/shared/logger"
)

// WalletRepositoryImpl implements the billing.WalletRepository interface.
type WalletRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.WalletMapper
	logger logger.Interface
}

// NewWalletRepository creates a new wallet repository instance.
func NewWalletRepository(database *gorm.DB, log logger.Interface) billing.WalletRepository {
	return &WalletRepositoryImpl{
		db:     database,
		mapper: mappers.NewWalletMapper(),
		logger: log,
	}
}

func (r *WalletRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *WalletRepositoryImpl) Create(ctx context.Context, wallet *billing.Wallet) error {
	model := r.mapper.ToModel(wallet)

	if err := r.conn(ctx).Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return fmt.Errorf("wallet for user %d already exists", wallet.UserID())
		}
		r.logger.Errorw("failed to create wallet", "user_id", wallet.UserID(), "error", err)
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	wallet.SetID(model.ID)
	return nil
}

func (r *WalletRepositoryImpl) GetByUserID(ctx context.Context, userID uint) (*billing.Wallet, error) {
	return r.getByUserID(ctx, userID, false)
}

// GetByUserIDForUpdate takes a SELECT ... FOR UPDATE row lock. Only
// meaningful inside a transaction started by the TransactionManager;
// concurrent debits against the same wallet serialize on this lock.
func (r *WalletRepositoryImpl) GetByUserIDForUpdate(ctx context.Context, userID uint) (*billing.Wallet, error) {
	return r.getByUserID(ctx, userID, true)
}

func (r *WalletRepositoryImpl) getByUserID(ctx context.Context, userID uint, forUpdate bool) (*billing.Wallet, error) {
	var model models.WalletModel

	tx := r.conn(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	if err := tx.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, billing.ErrWalletNotFound
		}
		r.logger.Errorw("failed to get wallet", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *WalletRepositoryImpl) Update(ctx context.Context, wallet *billing.Wallet) error {
	result := r.conn(ctx).Model(&models.WalletModel{}).
		Where("id = ?", wallet.ID()).
		Updates(map[string]any{
			"balance":    wallet.Balance(),
			"updated_at": wallet.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update wallet", "id", wallet.ID(), "error", result.Error)
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return billing.ErrWalletNotFound
	}
	return nil
}

// BalanceLogRepositoryImpl implements the billing.BalanceLogRepository interface.
type BalanceLogRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.BalanceLogMapper
	logger logger.Interface
}

// NewBalanceLogRepository creates a new balance log repository instance.
func NewBalanceLogRepository(database *gorm.DB, log logger.Interface) billing.BalanceLogRepository {
	return &BalanceLogRepositoryImpl{
		db:     database,
		mapper: mappers.NewBalanceLogMapper(),
		logger: log,
	}
}

func (r *BalanceLogRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *BalanceLogRepositoryImpl) Create(ctx context.Context, log *billing.BalanceLog) error {
	model, err := r.mapper.ToModel(log)
	if err != nil {
		return fmt.Errorf("failed to map balance log: %w", err)
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create balance log", "user_id", log.UserID(), "error", err)
		return fmt.Errorf("failed to create balance log: %w", err)
	}

	log.SetID(model.ID)
	return nil
}

func (r *BalanceLogRepositoryImpl) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]*billing.BalanceLog, error) {
	var list []*models.BalanceLogModel

	err := r.conn(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		r.logger.Errorw("failed to list balance logs", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list balance logs: %w", err)
	}

	return r.mapper.ToEntities(list)
}
