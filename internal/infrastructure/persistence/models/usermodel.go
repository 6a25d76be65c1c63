package models

import (
	"time"

	"veilink/internal/shared/constants"
)

// UserModel represents the database persistence model for users.
type UserModel struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"not null;size:100"`
	Email     string `gorm:"not null;size:255;uniqueIndex:idx_user_email"`
	Role      string `gorm:"not null;size:20;default:user"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (UserModel) TableName() string {
	return constants.TableUsers
}
