package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal — заявка фрилансера на вывод средств.
type Withdrawal struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	FreelancerID    uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	Amount          float64    `db:"amount" json:"amount"`
	Fee             float64    `db:"fee" json:"fee"`
	NetAmount       float64    `db:"net_amount" json:"net_amount"`
	Method          string     `db:"method" json:"method"`
	Destination     string     `db:"destination" json:"destination"`
	Status          string     `db:"status" json:"status"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}
