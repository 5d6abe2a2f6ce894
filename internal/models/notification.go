package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification — сохранённое уведомление пользователя.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NotificationPayload — полезная нагрузка события расчётного движка.
type NotificationPayload struct {
	EventType string      `json:"event_type"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

// Типы событий уведомлений.
const (
	EventBidSubmitted        = "bid.submitted"
	EventBidAccepted         = "bid.accepted"
	EventBidRejected         = "bid.rejected"
	EventDepositConfirmed    = "trade.deposit_confirmed"
	EventMilestoneSubmitted  = "milestone.submitted"
	EventMilestoneApproved   = "milestone.approved"
	EventMilestoneDisputed   = "milestone.disputed"
	EventMilestoneAutoPaid   = "milestone.auto_released"
	EventMilestoneOverdue    = "milestone.overdue"
	EventJobCompleted        = "job.completed"
	EventWithdrawalRequested = "withdrawal.requested"
	EventWithdrawalProcessed = "withdrawal.processed"
)
