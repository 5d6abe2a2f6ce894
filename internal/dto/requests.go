package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateJobRequest represents the request to publish a job posting
type CreateJobRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Currency    string `json:"currency"`
}

// SubmitBidRequest represents the request to place a bid on a job
type SubmitBidRequest struct {
	Amount       float64 `json:"amount" binding:"required"`
	DeliveryDays int     `json:"delivery_days" binding:"required"`
	CoverLetter  *string `json:"cover_letter"`
}

// AcceptBidRequest represents the request to accept a bid
type AcceptBidRequest struct {
	BidID string `json:"bid_id" binding:"required"`
}

// ConfirmDepositRequest represents the escrow deposit confirmation
type ConfirmDepositRequest struct {
	EscrowID string `json:"escrow_id" binding:"required"`
}

// MilestonePlanItemRequest represents one milestone in a plan
type MilestonePlanItemRequest struct {
	Title              string  `json:"title" binding:"required"`
	Amount             float64 `json:"amount" binding:"required"`
	DueDate            *string `json:"due_date"`
	AutoReleaseEnabled *bool   `json:"auto_release_enabled"`
}

// PlanMilestonesRequest represents the request to create a milestone plan
type PlanMilestonesRequest struct {
	Milestones []MilestonePlanItemRequest `json:"milestones" binding:"required"`
}

// SubmitMilestoneRequest represents the freelancer's work submission
type SubmitMilestoneRequest struct {
	SubmissionURL string  `json:"submission_url"`
	DeliverableID *string `json:"deliverable_id"`
}

// ApproveMilestoneRequest represents the client's approval
type ApproveMilestoneRequest struct {
	Feedback  *string `json:"feedback"`
	TipAmount float64 `json:"tip_amount"`
}

// RequestWithdrawalRequest represents a withdrawal request
type RequestWithdrawalRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	Method      string  `json:"method"`
	Destination string  `json:"destination" binding:"required"`
}

// RejectWithdrawalRequest represents the operator's rejection
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ParseDueDate converts string due date to time.Time pointer
func (r *MilestonePlanItemRequest) ParseDueDate() (*time.Time, error) {
	if r.DueDate == nil || *r.DueDate == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *r.DueDate)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ParseBidID converts the bid ID string to uuid.UUID
func (r *AcceptBidRequest) ParseBidID() (uuid.UUID, error) {
	return uuid.Parse(r.BidID)
}

// ParseDeliverableID converts the deliverable ID string to uuid.UUID pointer
func (r *SubmitMilestoneRequest) ParseDeliverableID() (*uuid.UUID, error) {
	if r.DeliverableID == nil || *r.DeliverableID == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(*r.DeliverableID)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
