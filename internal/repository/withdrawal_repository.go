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
	ErrWithdrawalNotFound      = errors.New("withdrawal not found")
	ErrWithdrawalStateConflict = errors.New("withdrawal is not in the required state")
	ErrInsufficientBalance     = errors.New("insufficient balance")
)

// WithdrawalRepository отвечает за таблицу withdrawals.
type WithdrawalRepository struct {
	db *sqlx.DB
}

// NewWithdrawalRepository создаёт экземпляр репозитория.
func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create проверяет баланс и создаёт заявку на вывод в одной транзакции.
// Блокировка строки пользователя — точка сериализации на фрилансера: две
// конкурирующие заявки не могут обе пройти проверку по устаревшему балансу.
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var userID uuid.UUID
		err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, w.FreelancerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("withdrawal repository: create lock user %w", err)
		}

		balance, err := computeBalance(ctx, tx, w.FreelancerID)
		if err != nil {
			return err
		}
		if w.Amount > balance.Available {
			return ErrInsufficientBalance
		}

		err = tx.GetContext(ctx, w, `
			INSERT INTO withdrawals (freelancer_id, amount, fee, net_amount, method, destination, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending')
			RETURNING *
		`, w.FreelancerID, w.Amount, w.Fee, w.NetAmount, w.Method, w.Destination)
		if err != nil {
			return fmt.Errorf("withdrawal repository: create %w", err)
		}

		return nil
	})
}

// GetByID возвращает заявку по идентификатору.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return common.GetByID[models.Withdrawal](ctx, r.db, "withdrawals", id, ErrWithdrawalNotFound)
}

// ListByFreelancer возвращает заявки фрилансера.
func (r *WithdrawalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list %w", err)
	}
	return withdrawals, nil
}

// UpdateStatus выполняет переход заявки из допустимого исходного статуса.
// При переходе в completed соответствующие начисления помечаются withdrawn
// (правило oldest-completed-first) в той же транзакции.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, rejectionReason *string) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &w, `
			UPDATE withdrawals
			SET status = $3, rejection_reason = $4,
			    processed_at = CASE WHEN $3 IN ('completed', 'rejected') THEN NOW() ELSE processed_at END
			WHERE id = $1 AND status = $2
			RETURNING *
		`, id, from, to, rejectionReason)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				var exists bool
				if getErr := tx.GetContext(ctx, &exists, `SELECT TRUE FROM withdrawals WHERE id = $1`, id); getErr != nil {
					if errors.Is(getErr, sql.ErrNoRows) {
						return ErrWithdrawalNotFound
					}
					return fmt.Errorf("withdrawal repository: update status check %w", getErr)
				}
				return ErrWithdrawalStateConflict
			}
			return fmt.Errorf("withdrawal repository: update status %w", err)
		}

		if to == models.WithdrawalStatusCompleted {
			if err := markEarningsWithdrawn(ctx, tx, w.FreelancerID, w.Amount); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}
