package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Milestone описывает этап работ в рамках заказа.
type Milestone struct {
	ID                 uuid.UUID          `db:"id" json:"id"`
	JobID              uuid.UUID          `db:"job_id" json:"job_id"`
	Title              string             `db:"title" json:"title"`
	Amount             float64            `db:"amount" json:"amount"`
	DueDate            *time.Time         `db:"due_date" json:"due_date,omitempty"`
	SortOrder          int                `db:"sort_order" json:"sort_order"`
	Status             string             `db:"status" json:"status"`
	AutoReleaseEnabled bool               `db:"auto_release_enabled" json:"auto_release_enabled"`
	SubmissionURL      *string            `db:"submission_url" json:"submission_url,omitempty"`
	DeliverableID      *uuid.UUID         `db:"deliverable_id" json:"deliverable_id,omitempty"`
	Feedback           *string            `db:"feedback" json:"feedback,omitempty"`
	Extension          MilestoneExtension `db:"extension" json:"extension"`
	SubmittedAt        *time.Time         `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt         *time.Time         `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// ReleaseDescriptor описывает вызов освобождения оплаты в escrow-контракте.
// Движок только записывает дескриптор, транзакцию подписывает внешний signer.
type ReleaseDescriptor struct {
	ContractAddress string   `json:"contract_address"`
	FunctionName    string   `json:"function_name"`
	Arguments       []string `json:"arguments"`
}

// Варианты расширения этапа.
const (
	ExtensionNone           = "none"
	ExtensionPendingRelease = "pending_release"
	ExtensionAutoReleased   = "auto_released"
)

// MilestoneExtension — типизированный вариант вместо произвольного JSON-мешка.
// Kind определяет, какие поля заполнены: pending_release несёт дескриптор
// ончейн-вызова, auto_released дополнительно фиксирует момент авторелиза.
type MilestoneExtension struct {
	Kind           string             `json:"kind"`
	PendingRelease *ReleaseDescriptor `json:"pending_release,omitempty"`
	AutoReleasedAt *time.Time         `json:"auto_released_at,omitempty"`
}

// NoExtension возвращает пустое расширение.
func NoExtension() MilestoneExtension {
	return MilestoneExtension{Kind: ExtensionNone}
}

// PendingReleaseExtension помечает этап ожидающим ончейн-освобождения средств.
func PendingReleaseExtension(d ReleaseDescriptor) MilestoneExtension {
	return MilestoneExtension{Kind: ExtensionPendingRelease, PendingRelease: &d}
}

// AutoReleasedExtension фиксирует авторелиз. Дескриптор может отсутствовать,
// если escrow-адаптер недоступен: его запись best-effort.
func AutoReleasedExtension(at time.Time, d *ReleaseDescriptor) MilestoneExtension {
	return MilestoneExtension{Kind: ExtensionAutoReleased, PendingRelease: d, AutoReleasedAt: &at}
}

// IsAutoReleased сообщает, был ли этап одобрен автоматически.
func (e MilestoneExtension) IsAutoReleased() bool {
	return e.Kind == ExtensionAutoReleased
}

// Value сериализует расширение в jsonb.
func (e MilestoneExtension) Value() (driver.Value, error) {
	if e.Kind == "" {
		e.Kind = ExtensionNone
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("milestone extension: marshal %w", err)
	}
	return raw, nil
}

// Scan читает расширение из jsonb.
func (e *MilestoneExtension) Scan(src interface{}) error {
	if src == nil {
		*e = NoExtension()
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("milestone extension: неподдерживаемый тип %T", src)
	}

	if len(raw) == 0 {
		*e = NoExtension()
		return nil
	}

	if err := json.Unmarshal(raw, e); err != nil {
		return fmt.Errorf("milestone extension: unmarshal %w", err)
	}
	if e.Kind == "" {
		e.Kind = ExtensionNone
	}
	return nil
}
