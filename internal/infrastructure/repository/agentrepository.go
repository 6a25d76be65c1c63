// Package repository provides the GORM-backed implementations of the
// domain persistence ports.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"veilink/internal/domain/agent"
	"veilink/internal/infrastructure/persistence/mappers"
	"veilink/internal/infrastructure/persistence/models"
	"veilink/internal/shared/db"
	"veilink/internal/shared/logger"
)

// AgentRepositoryImpl implements the agent.Repository interface.
type AgentRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.AgentMapper
	logger logger.Interface
}

// NewAgentRepository creates a new agent repository instance.
func NewAgentRepository(database *gorm.DB, log logger.Interface) agent.Repository {
	return &AgentRepositoryImpl{
		db:     database,
		mapper: mappers.NewAgentMapper(),
		logger: log,
	}
}

func (r *AgentRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *AgentRepositoryImpl) Create(ctx context.Context, a *agent.Agent) error {
	model := r.mapper.ToModel(a)

	if err := r.conn(ctx).Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return fmt.Errorf("agent %q already exists", a.Name())
		}
		r.logger.Errorw("failed to create agent", "error", err)
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if err := a.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set agent ID: %w", err)
	}
	return nil
}

func (r *AgentRepositoryImpl) GetByID(ctx context.Context, id uint) (*agent.Agent, error) {
	var model models.AgentModel

	if err := r.conn(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, agent.ErrAgentNotFound
		}
		r.logger.Errorw("failed to get agent by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *AgentRepositoryImpl) List(ctx context.Context) ([]*agent.Agent, error) {
	var list []*models.AgentModel

	if err := r.conn(ctx).Order("id").Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list agents", "error", err)
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	return r.mapper.ToEntities(list)
}

func (r *AgentRepositoryImpl) Update(ctx context.Context, a *agent.Agent) error {
	model := r.mapper.ToModel(a)

	result := r.conn(ctx).Model(&models.AgentModel{}).Where("id = ?", a.ID()).Updates(map[string]any{
		"name":            model.Name,
		"address":         model.Address,
		"status":          model.Status,
		"port_range_from": model.PortRangeFrom,
		"port_range_to":   model.PortRangeTo,
		"price_amount":    model.PriceAmount,
		"price_unit":      model.PriceUnit,
		"last_seen_at":    model.LastSeenAt,
		"updated_at":      time.Now(),
	})
	if result.Error != nil {
		r.logger.Errorw("failed to update agent", "id", a.ID(), "error", result.Error)
		return fmt.Errorf("failed to update agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return agent.ErrAgentNotFound
	}
	return nil
}

func (r *AgentRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status agent.Status) error {
	result := r.conn(ctx).Model(&models.AgentModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		r.logger.Errorw("failed to update agent status", "id", id, "error", result.Error)
		return fmt.Errorf("failed to update agent status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return agent.ErrAgentNotFound
	}
	return nil
}

// AgentShareRepositoryImpl implements the agent.ShareRepository interface.
type AgentShareRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewAgentShareRepository creates a new agent share repository instance.
func NewAgentShareRepository(database *gorm.DB, log logger.Interface) agent.ShareRepository {
	return &AgentShareRepositoryImpl{db: database, logger: log}
}

func (r *AgentShareRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *AgentShareRepositoryImpl) IsSharedWith(ctx context.Context, agentID, userID uint) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&models.AgentShareModel{}).
		Where("agent_id = ? AND user_id = ?", agentID, userID).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to check agent share", "agent_id", agentID, "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check agent share: %w", err)
	}
	return count > 0, nil
}

func (r *AgentShareRepositoryImpl) Share(ctx context.Context, agentID, userID uint) error {
	model := &models.AgentShareModel{AgentID: agentID, UserID: userID}
	if err := r.conn(ctx).Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil
		}
		r.logger.Errorw("failed to share agent", "agent_id", agentID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to share agent: %w", err)
	}
	return nil
}

func (r *AgentShareRepositoryImpl) Unshare(ctx context.Context, agentID, userID uint) error {
	err := r.conn(ctx).
		Where("agent_id = ? AND user_id = ?", agentID, userID).
		Delete(&models.AgentShareModel{}).Error
	if err != nil {
		r.logger.Errorw("failed to unshare agent", "agent_id", agentID, "user_id", userID, "error", err)
		return fmt.Errorf("failed to unshare agent: %w", err)
	}
	return nil
}
