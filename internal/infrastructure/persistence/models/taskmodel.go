package models

import (
	"time"

	"gorm.io/datatypes"

	"veilink/internal/shared/constants"
)

// TaskModel represents the database persistence model for durable agent
// tasks. Ephemeral tasks never reach this table.
type TaskModel struct {
	ID        string         `gorm:"primarykey;size:32"` // tk_ prefixed short id
	AgentID   uint           `gorm:"not null;index:idx_task_agent_id"`
	Type      string         `gorm:"not null;size:30"`
	Payload   datatypes.JSON `gorm:"type:json"`
	Status    string         `gorm:"not null;default:created;size:20;index:idx_task_status"`
	Success   *bool          `gorm:""`
	Extra     string         `gorm:"type:text"` // agent-reported result detail
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (TaskModel) TableName() string {
	return constants.TableTasks
}
