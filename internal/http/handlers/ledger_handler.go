package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklance/worklance-backend/internal/http/handlers/common"
	"github.com/worklance/worklance-backend/internal/service"
)

// LedgerHandler отдаёт историю начислений и баланс фрилансера.
type LedgerHandler struct {
	ledger *service.LedgerService
}

// NewLedgerHandler создаёт хэндлер.
func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// ListEarnings обрабатывает GET /api/earnings.
func (h *LedgerHandler) ListEarnings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	earnings, err := h.ledger.ListEarnings(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, earnings)
}

// GetBalance обрабатывает GET /api/earnings/balance.
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}
