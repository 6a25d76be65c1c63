package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veilink/internal/application/forward/usecases"
	"veilink/internal/interfaces/http/middleware"
	"veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
	"veilink/internal/shared/utils"
)

// ForwardHandler handles HTTP requests for single forwards.
type ForwardHandler struct {
	createUC   *usecases.CreateForwardUseCase
	teardownUC *usecases.TeardownForwardUseCase
	listUC     *usecases.ListForwardsUseCase
	logger     logger.Interface
}

// NewForwardHandler creates a new ForwardHandler.
func NewForwardHandler(
	createUC *usecases.CreateForwardUseCase,
	teardownUC *usecases.TeardownForwardUseCase,
	listUC *usecases.ListForwardsUseCase,
	log logger.Interface,
) *ForwardHandler {
	return &ForwardHandler{
		createUC:   createUC,
		teardownUC: teardownUC,
		listUC:     listUC,
		logger:     log,
	}
}

// CreateForwardRequest represents a request to create a forward.
// AgentPort 0 asks the agent to bind any free port.
type CreateForwardRequest struct {
	AgentID       uint   `json:"agent_id" binding:"required"`
	Method        string `json:"method" binding:"required"`
	Channel       string `json:"channel,omitempty"`
	ProxyProtocol bool   `json:"proxy_protocol,omitempty"`
	AgentPort     uint16 `json:"agent_port"`
	Target        string `json:"target" binding:"required"`
	TargetPort    uint16 `json:"target_port" binding:"required"`
}

// Create handles POST /forwards
func (h *ForwardHandler) Create(c *gin.Context) {
	var req CreateForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create forward", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), usecases.CreateForwardCommand{
		UserID:        middleware.UserID(c),
		AgentID:       req.AgentID,
		Method:        req.Method,
		Channel:       req.Channel,
		ProxyProtocol: req.ProxyProtocol,
		AgentPort:     req.AgentPort,
		Target:        req.Target,
		TargetPort:    req.TargetPort,
		TargetType:    "external",
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Forward created")
}

// List handles GET /forwards
func (h *ForwardHandler) List(c *gin.Context) {
	views, err := h.listUC.Execute(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", views)
}

// Delete handles DELETE /forwards/:id
func (h *ForwardHandler) Delete(c *gin.Context) {
	forwardID, ok := pathID(c, "id")
	if !ok {
		return
	}

	err := h.teardownUC.Execute(c.Request.Context(), usecases.TeardownForwardCommand{
		ForwardID: forwardID,
		UserID:    middleware.UserID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Forward removed", nil)
}
