package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"veilink/internal/domain/billing"
	"veilink/internal/infrastructure/persistence/models"
)

// WalletMapper handles the conversion between domain entities and persistence models.
type WalletMapper interface {
	ToEntity(model *models.WalletModel) (*billing.Wallet, error)
	ToModel(entity *billing.Wallet) *models.WalletModel
}

type WalletMapperImpl struct{}

func NewWalletMapper() WalletMapper {
	return &WalletMapperImpl{}
}

func (m *WalletMapperImpl) ToEntity(model *models.WalletModel) (*billing.Wallet, error) {
	if model == nil {
		return nil, nil
	}
	return billing.ReconstructWallet(model.ID, model.UserID, model.Balance, model.UpdatedAt), nil
}

func (m *WalletMapperImpl) ToModel(entity *billing.Wallet) *models.WalletModel {
	if entity == nil {
		return nil
	}
	return &models.WalletModel{
		ID:        entity.ID(),
		UserID:    entity.UserID(),
		Balance:   entity.Balance(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

// BalanceLogMapper handles the conversion between ledger postings and persistence models.
type BalanceLogMapper interface {
	ToEntity(model *models.BalanceLogModel) (*billing.BalanceLog, error)
	ToModel(entity *billing.BalanceLog) (*models.BalanceLogModel, error)
	ToEntities(models []*models.BalanceLogModel) ([]*billing.BalanceLog, error)
}

type BalanceLogMapperImpl struct{}

func NewBalanceLogMapper() BalanceLogMapper {
	return &BalanceLogMapperImpl{}
}

func (m *BalanceLogMapperImpl) ToEntity(model *models.BalanceLogModel) (*billing.BalanceLog, error) {
	if model == nil {
		return nil, nil
	}

	var metadata map[string]any
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to parse balance log metadata: %w", err)
		}
	}

	return billing.ReconstructBalanceLog(
		model.ID,
		model.UserID,
		billing.LogType(model.Type),
		model.Amount,
		model.Balance,
		model.Memo,
		metadata,
		model.CreatedAt,
	), nil
}

func (m *BalanceLogMapperImpl) ToModel(entity *billing.BalanceLog) (*models.BalanceLogModel, error) {
	if entity == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if entity.Metadata() != nil {
		raw, err := json.Marshal(entity.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to serialize balance log metadata: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	return &models.BalanceLogModel{
		ID:        entity.ID(),
		UserID:    entity.UserID(),
		Type:      string(entity.Type()),
		Amount:    entity.Amount(),
		Balance:   entity.Balance(),
		Memo:      entity.Memo(),
		Metadata:  metadata,
		CreatedAt: entity.CreatedAt(),
	}, nil
}

func (m *BalanceLogMapperImpl) ToEntities(list []*models.BalanceLogModel) ([]*billing.BalanceLog, error) {
	entities := make([]*billing.BalanceLog, 0, len(list))
	for _, model := range list {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
