package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"veilink/internal/application/billing"
	"veilink/internal/interfaces/http/middleware"
	"veilink/internal/shared/logger"
	"veilink/internal/shared/utils"
)

// WalletHandler handles HTTP requests for wallet balance and ledger.
type WalletHandler struct {
	wallets *billing.WalletQueryService
	logger  logger.Interface
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets *billing.WalletQueryService, log logger.Interface) *WalletHandler {
	return &WalletHandler{wallets: wallets, logger: log}
}

// GetBalance handles GET /wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	view, err := h.wallets.GetWallet(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

// ListBalanceLogs handles GET /wallet/logs
func (h *WalletHandler) ListBalanceLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, err := h.wallets.ListBalanceLogs(c.Request.Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", views)
}
