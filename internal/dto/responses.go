package dto

import (
	"github.com/google/uuid"

	"github.com/worklance/worklance-backend/internal/models"
)

// AcceptBidResponse represents the outcome of accepting a bid
type AcceptBidResponse struct {
	Bid            *models.Bid   `json:"bid"`
	Trade          *models.Trade `json:"trade"`
	RejectedBidIDs []uuid.UUID   `json:"rejected_bid_ids"`
}

// ApproveMilestoneResponse represents the outcome of approving a milestone
type ApproveMilestoneResponse struct {
	Milestone    *models.Milestone `json:"milestone"`
	Earnings     []models.Earning  `json:"earnings"`
	JobCompleted bool              `json:"job_completed"`
}

// JobWithBidsResponse represents a job posting with its bids
type JobWithBidsResponse struct {
	*models.JobPosting
	Bids []models.Bid `json:"bids"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
