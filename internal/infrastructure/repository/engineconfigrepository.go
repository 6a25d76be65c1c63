package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"veilink/internal/domain/forward"
	"veilink/internal/infrastructure/persistence/models"
	"veilink/internal/shared/db"
	"veilink/internal/shared/logger"
)

// EngineConfigRepositoryImpl implements the forward.ConfigRepository interface.
type EngineConfigRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewEngineConfigRepository creates a new engine config repository instance.
func NewEngineConfigRepository(database *gorm.DB, log logger.Interface) forward.ConfigRepository {
	return &EngineConfigRepositoryImpl{db: database, logger: log}
}

func (r *EngineConfigRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

// GetDocument returns the stored config document, or nil when the agent
// has no document for this engine yet.
func (r *EngineConfigRepositoryImpl) GetDocument(ctx context.Context, agentID uint, engine string) (json.RawMessage, error) {
	var model models.EngineConfigModel

	err := r.conn(ctx).
		Where("agent_id = ? AND engine = ?", agentID, engine).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get engine config", "agent_id", agentID, "engine", engine, "error", err)
		return nil, fmt.Errorf("failed to get engine config: %w", err)
	}

	return json.RawMessage(model.Document), nil
}

// SaveDocument upserts the config document for (agent, engine).
func (r *EngineConfigRepositoryImpl) SaveDocument(ctx context.Context, agentID uint, engine string, document json.RawMessage) error {
	model := &models.EngineConfigModel{
		AgentID:  agentID,
		Engine:   engine,
		Document: datatypes.JSON(document),
	}

	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}, {Name: "engine"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to save engine config", "agent_id", agentID, "engine", engine, "error", err)
		return fmt.Errorf("failed to save engine config: %w", err)
	}
	return nil
}
