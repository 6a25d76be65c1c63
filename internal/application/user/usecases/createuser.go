// Package usecases holds the account use cases.
package usecases

import (
	"context"
	"errors"
	"strings"

	"veilink/internal/domain/user"
	apperrors "veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
)

// CreateUserCommand represents the input for creating an account.
type CreateUserCommand struct {
	Name  string
	Email string
}

// CreateUserResult represents the output of creating an account.
type CreateUserResult struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateUserUseCase creates accounts that own agents, forwards and
// wallets.
type CreateUserUseCase struct {
	users  user.Repository
	logger logger.Interface
}

// NewCreateUserUseCase creates a new CreateUserUseCase.
func NewCreateUserUseCase(users user.Repository, log logger.Interface) *CreateUserUseCase {
	return &CreateUserUseCase{users: users, logger: log}
}

// Execute creates the account. Emails are unique.
func (uc *CreateUserUseCase) Execute(ctx context.Context, cmd CreateUserCommand) (*CreateUserResult, error) {
	name := strings.TrimSpace(cmd.Name)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("name and a valid email are required")
	}

	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflictError("email already registered")
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}

	u := user.NewUser(name, email)
	if err := uc.users.Create(ctx, u); err != nil {
		return nil, err
	}

	uc.logger.Infow("user created", "user_id", u.ID(), "email", email)
	return &CreateUserResult{ID: u.ID(), Name: u.Name(), Email: u.Email(), Role: string(u.Role())}, nil
}
