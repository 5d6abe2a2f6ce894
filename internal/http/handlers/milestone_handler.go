package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklance/worklance-backend/internal/dto"
	"github.com/worklance/worklance-backend/internal/http/handlers/common"
	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/service"
)

// MilestoneHandler предоставляет HTTP слой для этапов заказа.
type MilestoneHandler struct {
	milestones *service.MilestoneService
}

// NewMilestoneHandler создаёт хэндлер.
func NewMilestoneHandler(milestones *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

// Plan обрабатывает POST /api/jobs/:id/milestones.
func (h *MilestoneHandler) Plan(c *gin.Context) {
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

	var req dto.PlanMilestonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	items := make([]service.MilestonePlanItem, 0, len(req.Milestones))
	for _, m := range req.Milestones {
		dueDate, err := m.ParseDueDate()
		if err != nil {
			common.RespondBadRequest(c, "некорректный формат due_date, ожидается RFC3339")
			return
		}
		autoRelease := true
		if m.AutoReleaseEnabled != nil {
			autoRelease = *m.AutoReleaseEnabled
		}
		items = append(items, service.MilestonePlanItem{
			Title:              m.Title,
			Amount:             m.Amount,
			DueDate:            dueDate,
			AutoReleaseEnabled: autoRelease,
		})
	}

	milestones, err := h.milestones.PlanMilestones(c.Request.Context(), jobID, userID, items)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, milestones)
}

// List обрабатывает GET /api/jobs/:id/milestones.
func (h *MilestoneHandler) List(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestones, err := h.milestones.ListMilestones(c.Request.Context(), jobID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, milestones)
}

// Get обрабатывает GET /api/milestones/:id.
func (h *MilestoneHandler) Get(c *gin.Context) {
	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	m, err := h.milestones.GetMilestone(c.Request.Context(), milestoneID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// Start обрабатывает POST /api/milestones/:id/start.
func (h *MilestoneHandler) Start(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	m, err := h.milestones.StartMilestone(c.Request.Context(), milestoneID, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// Submit обрабатывает POST /api/milestones/:id/submit.
func (h *MilestoneHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SubmitMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	deliverableID, err := req.ParseDeliverableID()
	if err != nil {
		common.RespondBadRequest(c, "некорректный идентификатор файла")
		return
	}

	m, err := h.milestones.SubmitMilestone(c.Request.Context(), service.SubmitInput{
		MilestoneID:   milestoneID,
		FreelancerID:  userID,
		SubmissionURL: req.SubmissionURL,
		DeliverableID: deliverableID,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// Approve обрабатывает POST /api/milestones/:id/approve.
func (h *MilestoneHandler) Approve(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ApproveMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.milestones.ApproveMilestone(c.Request.Context(), service.ApproveInput{
		MilestoneID: milestoneID,
		Actor:       models.UserActor(userID),
		Feedback:    req.Feedback,
		TipAmount:   req.TipAmount,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ApproveMilestoneResponse{
		Milestone:    result.Milestone,
		Earnings:     result.Earnings,
		JobCompleted: result.JobCompleted,
	})
}

// Dispute обрабатывает POST /api/milestones/:id/dispute.
func (h *MilestoneHandler) Dispute(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	m, err := h.milestones.DisputeMilestone(c.Request.Context(), milestoneID, userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}
