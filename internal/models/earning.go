package models

import (
	"time"

	"github.com/google/uuid"
)

// Earning — запись в реестре начислений фрилансера. Реестр append-only:
// запись со статусом completed больше не меняется, кроме единственного
// перехода completed -> withdrawn при завершении вывода средств.
type Earning struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	JobID        uuid.UUID  `db:"job_id" json:"job_id"`
	MilestoneID  *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	Amount       float64    `db:"amount" json:"amount"`
	Type         string     `db:"type" json:"type"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Balance содержит производный доступный баланс фрилансера.
// Значение всегда вычисляется по строкам earnings/withdrawals и нигде не кэшируется.
type Balance struct {
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	Available    float64   `db:"available" json:"available"`
	TotalEarned  float64   `db:"total_earned" json:"total_earned"`
	TotalHeld    float64   `db:"total_held" json:"total_held"`
}
