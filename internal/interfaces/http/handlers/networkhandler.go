package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veilink/internal/application/topology/usecases"
	"veilink/internal/domain/topology"
	"veilink/internal/interfaces/http/middleware"
	"veilink/internal/shared/errors"
	"veilink/internal/shared/logger"
	"veilink/internal/shared/utils"
)

// NetworkHandler handles HTTP requests for multi-hop relay networks.
type NetworkHandler struct {
	createUC   *usecases.CreateNetworkUseCase
	teardownUC *usecases.TeardownChainUseCase
	logger     logger.Interface
}

// NewNetworkHandler creates a new NetworkHandler.
func NewNetworkHandler(
	createUC *usecases.CreateNetworkUseCase,
	teardownUC *usecases.TeardownChainUseCase,
	log logger.Interface,
) *NetworkHandler {
	return &NetworkHandler{createUC: createUC, teardownUC: teardownUC, logger: log}
}

// CreateNetworkRequest carries the node and edge graph drawn by the
// user. The graph must describe a single path ending at an external
// target.
type CreateNetworkRequest struct {
	Nodes []topology.Node `json:"nodes" binding:"required"`
	Edges []topology.Edge `json:"edges" binding:"required"`
}

// Create handles POST /networks
func (h *NetworkHandler) Create(c *gin.Context) {
	var req CreateNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create network", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), usecases.CreateNetworkCommand{
		UserID: middleware.UserID(c),
		Graph:  topology.Graph{Nodes: req.Nodes, Edges: req.Edges},
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Network created")
}

// Delete handles DELETE /networks/:forwardID
// The path parameter may reference any hop of the chain.
func (h *NetworkHandler) Delete(c *gin.Context) {
	forwardID, ok := pathID(c, "forwardID")
	if !ok {
		return
	}

	err := h.teardownUC.Execute(c.Request.Context(), usecases.TeardownChainCommand{
		ForwardID: forwardID,
		UserID:    middleware.UserID(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Network removed", nil)
}
