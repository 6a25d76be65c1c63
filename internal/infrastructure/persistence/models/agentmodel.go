package models

import (
	"time"

	"gorm.io/gorm"

	"veilink/internal/shared/constants"
)

// AgentModel represents the database persistence model for relay agents.
type AgentModel struct {
	ID            uint    `gorm:"primarykey"`
	Name          string  `gorm:"not null;size:100;index:idx_agent_name"`
	Address       string  `gorm:"not null;size:255"`
	Status        string  `gorm:"not null;default:offline;size:20;index:idx_agent_status"`
	OwnerID       uint    `gorm:"not null;index:idx_agent_owner_id"`
	PortRangeFrom uint16  `gorm:"not null;default:0"` // 0-0 means unrestricted
	PortRangeTo   uint16  `gorm:"not null;default:0"`
	PriceAmount   float64 `gorm:"not null;default:0"` // 0 means global default applies
	PriceUnit     string  `gorm:"size:10"`
	LastSeenAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM.
func (AgentModel) TableName() string {
	return constants.TableAgents
}

// BeforeCreate hook for GORM.
func (m *AgentModel) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = "offline"
	}
	return nil
}

// AgentShareModel grants a non-owner user the right to place forwards on
// an agent.
type AgentShareModel struct {
	ID        uint `gorm:"primarykey"`
	AgentID   uint `gorm:"not null;uniqueIndex:idx_agent_share"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_agent_share;index:idx_agent_share_user"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM.
func (AgentShareModel) TableName() string {
	return constants.TableAgentShares
}
