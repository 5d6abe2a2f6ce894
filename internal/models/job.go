package models

import (
	"time"

	"github.com/google/uuid"
)

// JobPosting описывает размещённый заказ с поэтапной оплатой.
// FreelancerID заполняется только после принятия ставки.
type JobPosting struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ClientID        uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID    *uuid.UUID `db:"freelancer_id" json:"freelancer_id,omitempty"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Status          string     `db:"status" json:"status"`
	Currency        string     `db:"currency" json:"currency"`
	CurrentBidCount int        `db:"current_bid_count" json:"current_bid_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Bid представляет ставку фрилансера на заказ.
type Bid struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	JobID        uuid.UUID  `db:"job_id" json:"job_id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Amount       float64    `db:"amount" json:"amount"`
	DeliveryDays int        `db:"delivery_days" json:"delivery_days"`
	CoverLetter  *string    `db:"cover_letter" json:"cover_letter,omitempty"`
	Status       string     `db:"status" json:"status"`
	AcceptedAt   *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedAt   *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
	WithdrawnAt  *time.Time `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
