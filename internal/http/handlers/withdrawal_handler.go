package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklance/worklance-backend/internal/dto"
	"github.com/worklance/worklance-backend/internal/http/handlers/common"
	"github.com/worklance/worklance-backend/internal/service"
)

// WithdrawalHandler обрабатывает заявки на вывод средств. Пользовательские
// маршруты доступны фрилансеру, перевод статусов выполняется внутренними
// вызовами платёжного оператора.
type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
}

// NewWithdrawalHandler создаёт хэндлер.
func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// Request обрабатывает POST /api/withdrawals.
func (h *WithdrawalHandler) Request(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	w, err := h.withdrawals.RequestWithdrawal(c.Request.Context(), service.RequestWithdrawalInput{
		FreelancerID: userID,
		Amount:       req.Amount,
		Method:       req.Method,
		Destination:  req.Destination,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, w)
}

// List обрабатывает GET /api/withdrawals.
func (h *WithdrawalHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	withdrawals, err := h.withdrawals.ListWithdrawals(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

// Get обрабатывает GET /api/withdrawals/:id.
func (h *WithdrawalHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	w, err := h.withdrawals.GetWithdrawal(c.Request.Context(), id, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// StartProcessing обрабатывает POST /internal/withdrawals/:id/process.
func (h *WithdrawalHandler) StartProcessing(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	w, err := h.withdrawals.StartProcessing(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// Complete обрабатывает POST /internal/withdrawals/:id/complete.
func (h *WithdrawalHandler) Complete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	w, err := h.withdrawals.CompleteWithdrawal(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// Reject обрабатывает POST /internal/withdrawals/:id/reject.
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	w, err := h.withdrawals.RejectWithdrawal(c.Request.Context(), id, req.Reason)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}
