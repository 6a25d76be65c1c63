package models

import (
	"time"

	"veilink/internal/shared/constants"
)

// ForwardTrafficModel is one coalesced ledger row of usage for a forward.
// Rows within the coalescing window are merged in place by the ledger, so
// row count stays bounded under high-frequency reporting.
type ForwardTrafficModel struct {
	ID        uint      `gorm:"primarykey"`
	ForwardID uint      `gorm:"not null;index:idx_forward_traffic_forward"`
	Time      time.Time `gorm:"not null;index:idx_forward_traffic_time"`
	Download  int64     `gorm:"not null;default:0"`
	Upload    int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (ForwardTrafficModel) TableName() string {
	return constants.TableForwardTraffic
}
