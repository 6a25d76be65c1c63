package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"veilink/internal/shared/constants"
)

// ForwardModel represents the database persistence model for forwards.
type ForwardModel struct {
	ID            uint           `gorm:"primarykey"`
	UserID        uint           `gorm:"not null;index:idx_forward_user_id"`
	AgentID       uint           `gorm:"not null;index:idx_forward_agent_id"`
	Method        string         `gorm:"not null;size:20"` // iptables, gost, realm
	Options       datatypes.JSON `gorm:"type:json"`
	AgentPort     uint16         `gorm:"not null;default:0"` // 0 until the agent binds
	TargetPort    uint16         `gorm:"not null;default:0"`
	Target        string         `gorm:"not null;size:255"`
	TargetType    string         `gorm:"not null;default:external;size:20"`
	TargetAgentID uint           `gorm:"default:0;index:idx_forward_target_agent"`
	NextForwardID *uint          `gorm:"index:idx_forward_next"` // downstream hop of a chain
	Status        string         `gorm:"not null;default:created;size:20;index:idx_forward_status"`
	Download      int64          `gorm:"not null;default:0"`
	Upload        int64          `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM.
func (ForwardModel) TableName() string {
	return constants.TableForwards
}

// BeforeCreate hook for GORM.
func (m *ForwardModel) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = "created"
	}
	if m.TargetType == "" {
		m.TargetType = "external"
	}
	return nil
}
