package mappers

import (
	"encoding/json"

	"gorm.io/datatypes"

	"veilink/internal/domain/task"
	"veilink/internal/infrastructure/persistence/models"
)

// TaskMapper handles the conversion between domain entities and persistence models.
type TaskMapper interface {
	ToEntity(model *models.TaskModel) (*task.Task, error)
	ToModel(entity *task.Task) *models.TaskModel
}

type TaskMapperImpl struct{}

func NewTaskMapper() TaskMapper {
	return &TaskMapperImpl{}
}

func (m *TaskMapperImpl) ToEntity(model *models.TaskModel) (*task.Task, error) {
	if model == nil {
		return nil, nil
	}

	var result *task.Result
	if model.Success != nil {
		result = &task.Result{Success: *model.Success, Extra: model.Extra}
	}

	return task.ReconstructTask(
		model.ID,
		model.AgentID,
		task.Type(model.Type),
		json.RawMessage(model.Payload),
		task.Status(model.Status),
		result,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *TaskMapperImpl) ToModel(entity *task.Task) *models.TaskModel {
	if entity == nil {
		return nil
	}

	model := &models.TaskModel{
		ID:        entity.ID(),
		AgentID:   entity.AgentID(),
		Type:      string(entity.Type()),
		Payload:   datatypes.JSON(entity.Payload()),
		Status:    string(entity.Status()),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
	if result := entity.Result(); result != nil {
		success := result.Success
		model.Success = &success
		model.Extra = result.Extra
	}
	return model
}
