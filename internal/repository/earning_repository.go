package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/worklance/worklance-backend/internal/models"
)

// EarningRepository отвечает за реестр начислений (таблица earnings).
type EarningRepository struct {
	db *sqlx.DB
}

// NewEarningRepository создаёт экземпляр репозитория.
func NewEarningRepository(db *sqlx.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

// ListByFreelancer возвращает начисления фрилансера.
func (r *EarningRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Earning, error) {
	var earnings []models.Earning
	err := r.db.SelectContext(ctx, &earnings, `
		SELECT * FROM earnings WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("earning repository: list %w", err)
	}
	return earnings, nil
}

// GetBalance вычисляет доступный баланс фрилансера. Значение производное:
// сумма освобождённых начислений минус сумма всех неотклонённых заявок на
// вывод. Нигде не кэшируется, поэтому расхождение с первичными строками
// невозможно по построению.
func (r *EarningRepository) GetBalance(ctx context.Context, freelancerID uuid.UUID) (*models.Balance, error) {
	return computeBalance(ctx, r.db, freelancerID)
}

// computeBalance — общий расчёт баланса; принимает и *sqlx.DB, и *sqlx.Tx,
// чтобы проверка перед вставкой заявки на вывод шла в той же транзакции.
//
// Начисления со статусом withdrawn остаются в положительной части суммы:
// их вывод уже учтён в отрицательной части через completed-заявку, иначе
// сумма вычиталась бы дважды.
func computeBalance(ctx context.Context, q sqlx.ExtContext, freelancerID uuid.UUID) (*models.Balance, error) {
	var balance models.Balance
	query := `
		SELECT
			$1::uuid AS freelancer_id,
			COALESCE((SELECT SUM(amount) FROM earnings
				WHERE freelancer_id = $1 AND status IN ('completed', 'withdrawn')), 0)
			- COALESCE((SELECT SUM(amount) FROM withdrawals
				WHERE freelancer_id = $1 AND status IN ('pending', 'processing', 'completed')), 0)
			AS available,
			COALESCE((SELECT SUM(amount) FROM earnings
				WHERE freelancer_id = $1 AND status IN ('completed', 'withdrawn')), 0) AS total_earned,
			COALESCE((SELECT SUM(amount) FROM withdrawals
				WHERE freelancer_id = $1 AND status IN ('pending', 'processing')), 0) AS total_held
	`
	if err := sqlx.GetContext(ctx, q, &balance, query, freelancerID); err != nil {
		return nil, fmt.Errorf("earning repository: compute balance %w", err)
	}
	return &balance, nil
}

// markEarningsWithdrawn переводит completed-начисления фрилансера в withdrawn,
// начиная с самых старых, пока их суммарный объём не покроет amount.
// Детерминированное правило сопоставления: oldest-completed-first.
func markEarningsWithdrawn(ctx context.Context, tx *sqlx.Tx, freelancerID uuid.UUID, amount float64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE earnings SET status = 'withdrawn'
		WHERE id IN (
			SELECT id FROM (
				SELECT id, SUM(amount) OVER (ORDER BY created_at ASC, id ASC) AS running
				FROM earnings
				WHERE freelancer_id = $1 AND status = 'completed'
			) ranked
			WHERE ranked.running <= $2
		)
	`, freelancerID, amount)
	if err != nil {
		return fmt.Errorf("earning repository: mark withdrawn %w", err)
	}
	return nil
}
