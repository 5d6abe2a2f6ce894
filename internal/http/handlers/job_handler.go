package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklance/worklance-backend/internal/dto"
	"github.com/worklance/worklance-backend/internal/http/handlers/common"
	"github.com/worklance/worklance-backend/internal/service"
)

// JobHandler предоставляет HTTP слой для заказов и ставок.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler создаёт хэндлер.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Create обрабатывает POST /api/jobs.
func (h *JobHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), service.CreateJobInput{
		ClientID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Currency:    req.Currency,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// Get обрабатывает GET /api/jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListMy обрабатывает GET /api/jobs/my.
func (h *JobHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)
	limit, offset := common.GetPagination(c)

	jobs, err := h.jobs.ListMyJobs(c.Request.Context(), userID, role, limit, offset)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// Delete обрабатывает DELETE /api/jobs/:id.
func (h *JobHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.DeleteJob(c.Request.Context(), jobID, userID); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubmitBid обрабатывает POST /api/jobs/:id/bids.
func (h *JobHandler) SubmitBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bid, err := h.jobs.SubmitBid(c.Request.Context(), service.SubmitBidInput{
		JobID:        jobID,
		FreelancerID: userID,
		Amount:       req.Amount,
		DeliveryDays: req.DeliveryDays,
		CoverLetter:  req.CoverLetter,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bid)
}

// ListBids обрабатывает GET /api/jobs/:id/bids.
func (h *JobHandler) ListBids(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bids, err := h.jobs.ListBids(c.Request.Context(), jobID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bids)
}

// AcceptBid обрабатывает POST /api/jobs/:id/accept.
func (h *JobHandler) AcceptBid(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.AcceptBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	bidID, err := req.ParseBidID()
	if err != nil {
		common.RespondBadRequest(c, "некорректный идентификатор ставки")
		return
	}

	result, err := h.jobs.AcceptBid(c.Request.Context(), jobID, bidID, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AcceptBidResponse{
		Bid:            result.Bid,
		Trade:          result.Trade,
		RejectedBidIDs: result.RejectedBids,
	})
}

// GetTrade обрабатывает GET /api/jobs/:id/trade.
func (h *JobHandler) GetTrade(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	trade, err := h.jobs.GetTrade(c.Request.Context(), jobID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

// ConfirmDeposit обрабатывает POST /api/jobs/:id/deposit.
func (h *JobHandler) ConfirmDeposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	trade, err := h.jobs.ConfirmDeposit(c.Request.Context(), jobID, userID, req.EscrowID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}
