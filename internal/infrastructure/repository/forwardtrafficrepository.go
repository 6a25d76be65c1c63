package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"veilink/internal/domain/forward"
	"veilink/internal/infrastructure/persistence/models"
	"veilink/internal/shared/db"
	"veilink/internal/shared/logger"
)

// ForwardTrafficRepositoryImpl implements the forward.TrafficRepository interface.
type ForwardTrafficRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewForwardTrafficRepository creates a new forward traffic repository instance.
func NewForwardTrafficRepository(database *gorm.DB, log logger.Interface) forward.TrafficRepository {
	return &ForwardTrafficRepositoryImpl{db: database, logger: log}
}

func (r *ForwardTrafficRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.GetTxFromContext(ctx, r.db)
}

func toTrafficEntry(m *models.ForwardTrafficModel) *forward.TrafficEntry {
	return &forward.TrafficEntry{
		ID:        m.ID,
		ForwardID: m.ForwardID,
		Time:      m.Time,
		Download:  m.Download,
		Upload:    m.Upload,
	}
}

func (r *ForwardTrafficRepositoryImpl) GetLatest(ctx context.Context, forwardID uint) (*forward.TrafficEntry, error) {
	var model models.ForwardTrafficModel

	err := r.conn(ctx).
		Where("forward_id = ?", forwardID).
		Order("time DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get latest traffic entry", "forward_id", forwardID, "error", err)
		return nil, fmt.Errorf("failed to get latest traffic entry: %w", err)
	}

	return toTrafficEntry(&model), nil
}

func (r *ForwardTrafficRepositoryImpl) Update(ctx context.Context, entry *forward.TrafficEntry) error {
	result := r.conn(ctx).Model(&models.ForwardTrafficModel{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"time":     entry.Time,
			"download": entry.Download,
			"upload":   entry.Upload,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update traffic entry", "id", entry.ID, "error", result.Error)
		return fmt.Errorf("failed to update traffic entry: %w", result.Error)
	}
	return nil
}

func (r *ForwardTrafficRepositoryImpl) BatchCreate(ctx context.Context, entries []*forward.TrafficEntry) error {
	if len(entries) == 0 {
		return nil
	}

	list := make([]*models.ForwardTrafficModel, 0, len(entries))
	for _, entry := range entries {
		list = append(list, &models.ForwardTrafficModel{
			ForwardID: entry.ForwardID,
			Time:      entry.Time,
			Download:  entry.Download,
			Upload:    entry.Upload,
		})
	}

	if err := r.conn(ctx).Create(&list).Error; err != nil {
		r.logger.Errorw("failed to batch create traffic entries", "count", len(list), "error", err)
		return fmt.Errorf("failed to batch create traffic entries: %w", err)
	}

	for i, model := range list {
		entries[i].ID = model.ID
	}
	return nil
}

func (r *ForwardTrafficRepositoryImpl) ListRange(ctx context.Context, forwardID uint, from, to time.Time) ([]*forward.TrafficEntry, error) {
	var list []*models.ForwardTrafficModel

	err := r.conn(ctx).
		Where("forward_id = ? AND time >= ? AND time < ?", forwardID, from, to).
		Order("time").
		Find(&list).Error
	if err != nil {
		r.logger.Errorw("failed to list traffic entries", "forward_id", forwardID, "error", err)
		return nil, fmt.Errorf("failed to list traffic entries: %w", err)
	}

	entries := make([]*forward.TrafficEntry, 0, len(list))
	for _, model := range list {
		entries = append(entries, toTrafficEntry(model))
	}
	return entries, nil
}
