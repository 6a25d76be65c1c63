// Package handlers provides the HTTP handlers of the control plane API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"veilink/internal/application/agent/usecases"
	"veilink/internal/interfaces/http/middleware"
	"veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
	"veilink/internal/shared/utils"
)

// AgentHandler handles HTTP requests for relay agents.
type AgentHandler struct {
	registerUC *usecases.RegisterAgentUseCase
	listUC     *usecases.ListAgentsUseCase
	shareUC    *usecases.ShareAgentUseCase
	unshareUC  *usecases.UnshareAgentUseCase
	logger     logger.Interface
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(
	registerUC *usecases.RegisterAgentUseCase,
	listUC *usecases.ListAgentsUseCase,
	shareUC *usecases.ShareAgentUseCase,
	unshareUC *usecases.UnshareAgentUseCase,
	log logger.Interface,
) *AgentHandler {
	return &AgentHandler{
		registerUC: registerUC,
		listUC:     listUC,
		shareUC:    shareUC,
		unshareUC:  unshareUC,
		logger:     log,
	}
}

// RegisterAgentRequest represents a request to register an agent.
type RegisterAgentRequest struct {
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	PortRangeFrom uint16 `json:"port_range_from"`
	PortRangeTo   uint16 `json:"port_range_to"`
}

// ShareAgentRequest represents a request to share an agent with a user.
type ShareAgentRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Register handles POST /agents
func (h *AgentHandler) Register(c *gin.Context) {
	var req RegisterAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for register agent", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	result, err := h.registerUC.Execute(c.Request.Context(), usecases.RegisterAgentCommand{
		Name:          req.Name,
		Address:       req.Address,
		OwnerID:       middleware.UserID(c),
		PortRangeFrom: req.PortRangeFrom,
		PortRangeTo:   req.PortRangeTo,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Agent registered")
}

// List handles GET /agents
func (h *AgentHandler) List(c *gin.Context) {
	views, err := h.listUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", views)
}

// Share handles POST /agents/:id/shares
func (h *AgentHandler) Share(c *gin.Context) {
	agentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ShareAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	err := h.shareUC.Execute(c.Request.Context(), usecases.ShareAgentCommand{
		AgentID:      agentID,
		OwnerID:      middleware.UserID(c),
		TargetUserID: req.UserID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Agent shared", nil)
}

// Unshare handles DELETE /agents/:id/shares/:userID
func (h *AgentHandler) Unshare(c *gin.Context) {
	agentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	err := h.unshareUC.Execute(c.Request.Context(), usecases.ShareAgentCommand{
		AgentID:      agentID,
		OwnerID:      middleware.UserID(c),
		TargetUserID: targetID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Agent unshared", nil)
}

// pathID parses a numeric path parameter and writes the error response
// itself when the value is malformed.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid "+name+" parameter"))
		return 0, false
	}
	return uint(v), true
}
