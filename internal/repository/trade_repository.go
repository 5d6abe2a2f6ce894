package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/repository/common"
)

var (
	ErrTradeNotFound      = errors.New("trade not found")
	ErrTradeStateConflict = errors.New("trade is not in the required state")
)

// TradeRepository отвечает за таблицу trades (указатели на escrow).
type TradeRepository struct {
	db *sqlx.DB
}

// NewTradeRepository создаёт экземпляр репозитория.
func NewTradeRepository(db *sqlx.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// GetByID возвращает сделку по идентификатору.
func (r *TradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return common.GetByID[models.Trade](ctx, r.db, "trades", id, ErrTradeNotFound)
}

// GetByJobID возвращает сделку по заказу.
func (r *TradeRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Trade, error) {
	return common.GetByField[models.Trade](ctx, r.db, "trades", "job_id", jobID, ErrTradeNotFound)
}

// ConfirmDeposit фиксирует внесённый депозит: записывает идентификатор escrow
// и переводит сделку pending_deposit -> active.
func (r *TradeRepository) ConfirmDeposit(ctx context.Context, jobID uuid.UUID, escrowID string) (*models.Trade, error) {
	var trade models.Trade
	err := r.db.GetContext(ctx, &trade, `
		UPDATE trades SET escrow_id = $2, status = 'active', updated_at = NOW()
		WHERE job_id = $1 AND status = 'pending_deposit'
		RETURNING *
	`, jobID, escrowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByJobID(ctx, jobID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrTradeStateConflict
		}
		return nil, fmt.Errorf("trade repository: confirm deposit %w", err)
	}
	return &trade, nil
}
