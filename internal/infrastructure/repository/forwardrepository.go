package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"veilink/internal/domain/forward"
	"veilink/internal/infrastructure/persistence/mappers"
	"veilink/internal/infrastructure/persistence/models"
	"veilink/internal/shared/db"
	"veilink/internal/shared/logger"
)

// ForwardRepositoryImpl implements the forward.Repository interface.
type ForwardRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ForwardMapper
	logger logger.Interface
}

// NewForwardRepository creates a new forward repository instance.
func NewForwardRepository(database *gorm.DB, log logger.Interface) forward.Repository {
	return &ForwardRepositoryImpl{
		db:     database,
		mapper: mappers.NewForwardMapper(),
		logger: log,
	}
}

func (r *ForwardRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *ForwardRepositoryImpl) Create(ctx context.Context, f *forward.Forward) error {
	model, err := r.mapper.ToModel(f)
	if err != nil {
		return fmt.Errorf("failed to map forward: %w", err)
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create forward", "error", err)
		return fmt.Errorf("failed to create forward: %w", err)
	}

	if err := f.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set forward ID: %w", err)
	}
	return nil
}

func (r *ForwardRepositoryImpl) GetByID(ctx context.Context, id uint) (*forward.Forward, error) {
	var model models.ForwardModel

	if err := r.conn(ctx).Unscoped().First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forward.ErrForwardNotFound
		}
		r.logger.Errorw("failed to get forward by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get forward: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *ForwardRepositoryImpl) Update(ctx context.Context, f *forward.Forward) error {
	model, err := r.mapper.ToModel(f)
	if err != nil {
		return fmt.Errorf("failed to map forward: %w", err)
	}

	updates := map[string]any{
		"options":         model.Options,
		"agent_port":      model.AgentPort,
		"target_port":     model.TargetPort,
		"target":          model.Target,
		"target_type":     model.TargetType,
		"target_agent_id": model.TargetAgentID,
		"next_forward_id": model.NextForwardID,
		"status":          model.Status,
		"download":        model.Download,
		"upload":          model.Upload,
	}

	tx := r.conn(ctx).Unscoped().Model(&models.ForwardModel{}).Where("id = ?", f.ID())
	if f.IsDeleted() {
		updates["deleted_at"] = gorm.Expr("COALESCE(deleted_at, NOW())")
	}

	result := tx.Updates(updates)
	if result.Error != nil {
		r.logger.Errorw("failed to update forward", "id", f.ID(), "error", result.Error)
		return fmt.Errorf("failed to update forward: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return forward.ErrForwardNotFound
	}
	return nil
}

func (r *ForwardRepositoryImpl) FindRunningByAgentPort(ctx context.Context, agentID uint, port uint16) (*forward.Forward, error) {
	var model models.ForwardModel

	err := r.conn(ctx).
		Where("agent_id = ? AND agent_port = ? AND status = ?", agentID, port, "running").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to find forward by agent port", "agent_id", agentID, "port", port, "error", err)
		return nil, fmt.Errorf("failed to find forward by agent port: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *ForwardRepositoryImpl) FindByNextForwardID(ctx context.Context, id uint) (*forward.Forward, error) {
	var model models.ForwardModel

	err := r.conn(ctx).Where("next_forward_id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to find forward by chain link", "next_forward_id", id, "error", err)
		return nil, fmt.Errorf("failed to find forward by chain link: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *ForwardRepositoryImpl) ListByAgent(ctx context.Context, agentID uint) ([]*forward.Forward, error) {
	var list []*models.ForwardModel

	if err := r.conn(ctx).Where("agent_id = ?", agentID).Order("id").Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list forwards by agent", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf("failed to list forwards: %w", err)
	}

	return r.mapper.ToEntities(list)
}

func (r *ForwardRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*forward.Forward, error) {
	var list []*models.ForwardModel

	if err := r.conn(ctx).Where("user_id = ?", userID).Order("id").Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list forwards by user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list forwards: %w", err)
	}

	return r.mapper.ToEntities(list)
}
