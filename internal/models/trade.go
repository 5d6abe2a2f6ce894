package models

import (
	"time"

	"github.com/google/uuid"
)

// Trade связывает принятую ставку с escrow-контрактом, удерживающим оплату.
// Создаётся ровно один раз — в момент принятия ставки. После создания
// меняется только статус и идентификатор escrow (при подтверждении депозита).
type Trade struct {
	ID              uuid.UUID `db:"id" json:"id"`
	JobID           uuid.UUID `db:"job_id" json:"job_id"`
	BidID           uuid.UUID `db:"bid_id" json:"bid_id"`
	BuyerID         uuid.UUID `db:"buyer_id" json:"buyer_id"`
	SellerID        uuid.UUID `db:"seller_id" json:"seller_id"`
	Amount          float64   `db:"amount" json:"amount"`
	ChainID         int64     `db:"chain_id" json:"chain_id"`
	EscrowID        *string   `db:"escrow_id" json:"escrow_id,omitempty"`
	Status          string    `db:"status" json:"status"`
	DepositDeadline time.Time `db:"deposit_deadline" json:"deposit_deadline"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
