package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"veilink/internal/domain/task"
	"veilink/internal/infrastructure/persistence/mappers"
	"veilink/internal/infrastructure/persistence/models"
	"veilink/internal/shared/db"
	"veilink/internal/shared/logger"
)

// TaskRepositoryImpl implements the task.Repository interface.
type TaskRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TaskMapper
	logger logger.Interface
}

// NewTaskRepository creates a new task repository instance.
func NewTaskRepository(database *gorm.DB, log logger.Interface) task.Repository {
	return &TaskRepositoryImpl{
		db:     database,
		mapper: mappers.NewTaskMapper(),
		logger: log,
	}
}

func (r *TaskRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, t *task.Task) error {
	model := r.mapper.ToModel(t)

	if err := r.conn(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create task", "id", t.ID(), "error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id string) (*task.Task, error) {
	var model models.TaskModel

	if err := r.conn(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrTaskNotFound
		}
		r.logger.Errorw("failed to get task by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, t *task.Task) error {
	model := r.mapper.ToModel(t)

	result := r.conn(ctx).Model(&models.TaskModel{}).
		Where("id = ?", t.ID()).
		Updates(map[string]any{
			"status":  model.Status,
			"success": model.Success,
			"extra":   model.Extra,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update task", "id", t.ID(), "error", result.Error)
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}
