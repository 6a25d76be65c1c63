package models

import (
	"time"

	"gorm.io/datatypes"

	"veilink/internal/shared/constants"
)

// EngineConfigModel stores one tunnel engine's config document for one
// agent. The document is the full engine config (gost services/chains or
// realm endpoints) serialized as JSON; mutations are read-modify-write
// and must be serialized per agent by the caller.
type EngineConfigModel struct {
	ID        uint           `gorm:"primarykey"`
	AgentID   uint           `gorm:"not null;uniqueIndex:idx_engine_config_agent_engine"`
	Engine    string         `gorm:"not null;size:20;uniqueIndex:idx_engine_config_agent_engine"` // gost, realm
	Document  datatypes.JSON `gorm:"type:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (EngineConfigModel) TableName() string {
	return constants.TableEngineConfigs
}
