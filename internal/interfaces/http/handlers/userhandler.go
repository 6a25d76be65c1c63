package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"veilink/internal/application/user/usecases"
	"veilink/internal/domain/user"
	"veilink/internal/interfaces/http/middleware"
	apperrors "veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
	"veilink/internal/shared/utils"
)

// UserHandler handles HTTP requests for accounts.
type UserHandler struct {
	createUC *usecases.CreateUserUseCase
	users    user.Repository
	logger   logger.Interface
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(createUC *usecases.CreateUserUseCase, users user.Repository, log logger.Interface) *UserHandler {
	return &UserHandler{createUC: createUC, users: users, logger: log}
}

// CreateUserRequest represents a request to create an account.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), usecases.CreateUserCommand{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "User created")
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("user not found"))
			return
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", usecases.CreateUserResult{
		ID:    u.ID(),
		Name:  u.Name(),
		Email: u.Email(),
		Role:  string(u.Role()),
	})
}
