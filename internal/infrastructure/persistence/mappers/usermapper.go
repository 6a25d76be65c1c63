package mappers

import (
	"veilink/internal/domain/user"
	"veilink/internal/infrastructure/persistence/models"
)

// UserMapper handles the conversion between domain entities and persistence models.
type UserMapper interface {
	ToEntity(model *models.UserModel) (*user.User, error)
	ToModel(entity *user.User) *models.UserModel
}

type UserMapperImpl struct{}

func NewUserMapper() UserMapper {
	return &UserMapperImpl{}
}

func (m *UserMapperImpl) ToEntity(model *models.UserModel) (*user.User, error) {
	if model == nil {
		return nil, nil
	}
	return user.ReconstructUser(model.ID, model.Name, model.Email, user.Role(model.Role), model.CreatedAt), nil
}

func (m *UserMapperImpl) ToModel(entity *user.User) *models.UserModel {
	if entity == nil {
		return nil
	}
	return &models.UserModel{
		ID:        entity.ID(),
		Name:      entity.Name(),
		Email:     entity.Email(),
		Role:      string(entity.Role()),
		CreatedAt: entity.CreatedAt(),
	}
}
