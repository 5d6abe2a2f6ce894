package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklance/worklance-backend/internal/http/handlers/common"
	"github.com/worklance/worklance-backend/internal/service"
)

// BidHandler предоставляет HTTP слой для операций над отдельными ставками.
type BidHandler struct {
	jobs *service.JobService
}

// NewBidHandler создаёт хэндлер.
func NewBidHandler(jobs *service.JobService) *BidHandler {
	return &BidHandler{jobs: jobs}
}

// Shortlist обрабатывает POST /api/bids/:id/shortlist.
func (h *BidHandler) Shortlist(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bid, err := h.jobs.ShortlistBid(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

// Reject обрабатывает POST /api/bids/:id/reject.
func (h *BidHandler) Reject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bid, err := h.jobs.RejectBid(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

// Withdraw обрабатывает POST /api/bids/:id/withdraw.
func (h *BidHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bidID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bid, err := h.jobs.WithdrawBid(c.Request.Context(), bidID, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}
