package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"veilink/internal/domain/forward"
	vo "veilink/internal/domain/forward/valueobjects"
	"veilink/internal/infrastructure/persistence/models"
)

// ForwardMapper handles the conversion between domain entities and persistence models.
type ForwardMapper interface {
	ToEntity(model *models.ForwardModel) (*forward.Forward, error)
	ToModel(entity *forward.Forward) (*models.ForwardModel, error)
	ToEntities(models []*models.ForwardModel) ([]*forward.Forward, error)
}

type ForwardMapperImpl struct{}

func NewForwardMapper() ForwardMapper {
	return &ForwardMapperImpl{}
}

func (m *ForwardMapperImpl) ToEntity(model *models.ForwardModel) (*forward.Forward, error) {
	if model == nil {
		return nil, nil
	}

	var options forward.Options
	if len(model.Options) > 0 {
		if err := json.Unmarshal(model.Options, &options); err != nil {
			return nil, fmt.Errorf("failed to parse forward options: %w", err)
		}
	}

	return forward.ReconstructForward(
		model.ID,
		model.UserID,
		model.AgentID,
		vo.Method(model.Method),
		options,
		model.AgentPort,
		model.TargetPort,
		model.Target,
		vo.TargetType(model.TargetType),
		model.TargetAgentID,
		model.NextForwardID,
		vo.Status(model.Status),
		model.Download,
		model.Upload,
		model.DeletedAt.Valid,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *ForwardMapperImpl) ToModel(entity *forward.Forward) (*models.ForwardModel, error) {
	if entity == nil {
		return nil, nil
	}

	options, err := json.Marshal(entity.Options())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize forward options: %w", err)
	}

	return &models.ForwardModel{
		ID:            entity.ID(),
		UserID:        entity.UserID(),
		AgentID:       entity.AgentID(),
		Method:        string(entity.Method()),
		Options:       datatypes.JSON(options),
		AgentPort:     entity.AgentPort(),
		TargetPort:    entity.TargetPort(),
		Target:        entity.Target(),
		TargetType:    string(entity.TargetType()),
		TargetAgentID: entity.TargetAgentID(),
		NextForwardID: entity.NextForwardID(),
		Status:        string(entity.Status()),
		Download:      entity.Download(),
		Upload:        entity.Upload(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}, nil
}

func (m *ForwardMapperImpl) ToEntities(list []*models.ForwardModel) ([]*forward.Forward, error) {
	entities := make([]*forward.Forward, 0, len(list))
	for _, model := range list {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
