package mappers

import (
	"veilink/internal/domain/agent"
	"veilink/internal/infrastructure/persistence/models"
)

// AgentMapper handles the conversion between domain entities and persistence models.
type AgentMapper interface {
	ToEntity(model *models.AgentModel) (*agent.Agent, error)
	ToModel(entity *agent.Agent) *models.AgentModel
	ToEntities(models []*models.AgentModel) ([]*agent.Agent, error)
}

type AgentMapperImpl struct{}

func NewAgentMapper() AgentMapper {
	return &AgentMapperImpl{}
}

func (m *AgentMapperImpl) ToEntity(model *models.AgentModel) (*agent.Agent, error) {
	if model == nil {
		return nil, nil
	}
	return agent.ReconstructAgent(
		model.ID,
		model.Name,
		model.Address,
		agent.Status(model.Status),
		model.OwnerID,
		model.PortRangeFrom,
		model.PortRangeTo,
		model.PriceAmount,
		model.PriceUnit,
		model.LastSeenAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *AgentMapperImpl) ToModel(entity *agent.Agent) *models.AgentModel {
	if entity == nil {
		return nil
	}
	amount, unit, _ := entity.PriceOverride()
	return &models.AgentModel{
		ID:            entity.ID(),
		Name:          entity.Name(),
		Address:       entity.Address(),
		Status:        string(entity.Status()),
		OwnerID:       entity.OwnerID(),
		PortRangeFrom: entity.PortRangeFrom(),
		PortRangeTo:   entity.PortRangeTo(),
		PriceAmount:   amount,
		PriceUnit:     unit,
		LastSeenAt:    entity.LastSeenAt(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}
}

func (m *AgentMapperImpl) ToEntities(list []*models.AgentModel) ([]*agent.Agent, error) {
	entities := make([]*agent.Agent, 0, len(list))
	for _, model := range list {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
