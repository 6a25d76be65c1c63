package models

import (
	"time"

	"gorm.io/datatypes"

	"veilink/internal/shared/constants"
)

// WalletModel represents the database persistence model for wallets.
type WalletModel struct {
	ID        uint    `gorm:"primarykey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_wallet_user"`
	Balance   float64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (WalletModel) TableName() string {
	return constants.TableWallets
}

// BalanceLogModel is one ledger posting with its audit metadata.
type BalanceLogModel struct {
	ID        uint           `gorm:"primarykey"`
	UserID    uint           `gorm:"not null;index:idx_balance_log_user"`
	Type      string         `gorm:"not null;size:10"` // debit, credit
	Amount    float64        `gorm:"not null"`
	Balance   float64        `gorm:"not null"` // balance after posting
	Memo      string         `gorm:"size:500"`
	Metadata  datatypes.JSON `gorm:"type:json"` // computation trace
	CreatedAt time.Time
}

// TableName specifies the table name for GORM.
func (BalanceLogModel) TableName() string {
	return constants.TableBalanceLogs
}
