package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/repository/common"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrBidNotFound      = errors.New("bid not found")
	ErrJobNotOpen       = errors.New("job is not open")
	ErrBidNotPending    = errors.New("bid is not pending")
	ErrBidAlreadyExists = errors.New("bid already exists for this freelancer")
	ErrJobHasProgress   = errors.New("job has bids or milestones past pending")
)

// Срок, в течение которого клиент должен внести депозит после принятия ставки.
const depositDeadlineDays = 7

// JobRepository отвечает за таблицы job_postings и bids.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository создаёт экземпляр репозитория.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create создаёт новый заказ.
func (r *JobRepository) Create(ctx context.Context, job *models.JobPosting) error {
	query := `
		INSERT INTO job_postings (client_id, title, description, status, currency)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, current_bid_count, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		job.ClientID, job.Title, job.Description, models.JobStatusOpen, job.Currency,
	).Scan(&job.ID, &job.CurrentBidCount, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	job.Status = models.JobStatusOpen

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	return common.GetByID[models.JobPosting](ctx, r.db, "job_postings", id, ErrJobNotFound)
}

// ListByClient возвращает заказы клиента.
func (r *JobRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM job_postings WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("job repository: list by client %w", err)
	}
	return jobs, nil
}

// ListByFreelancer возвращает заказы, закреплённые за фрилансером.
func (r *JobRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM job_postings WHERE freelancer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, freelancerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("job repository: list by freelancer %w", err)
	}
	return jobs, nil
}

// Delete удаляет заказ клиента. Удаление разрешено, только пока ни одна
// дочерняя сущность (ставка или этап) не покинула статус pending.
func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID, clientID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM job_postings
		WHERE id = $1 AND client_id = $2
		  AND NOT EXISTS (SELECT 1 FROM bids b WHERE b.job_id = $1 AND b.status <> 'pending')
		  AND NOT EXISTS (SELECT 1 FROM milestones m WHERE m.job_id = $1 AND m.status <> 'pending')
	`, id, clientID)
	if err != nil {
		return fmt.Errorf("job repository: delete %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: delete rows affected %w", err)
	}
	if rows == 0 {
		// Либо заказа нет, либо по нему уже идёт работа.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrJobHasProgress
	}

	return nil
}

// CreateBid создаёт ставку и атомарно инкрементирует счётчик ставок заказа.
// Уникальность пары (job_id, freelancer_id) гарантирует индекс в БД.
func (r *JobRepository) CreateBid(ctx context.Context, bid *models.Bid) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var jobStatus string
		err := tx.GetContext(ctx, &jobStatus, `SELECT status FROM job_postings WHERE id = $1 FOR UPDATE`, bid.JobID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrJobNotFound
			}
			return fmt.Errorf("job repository: create bid lock job %w", err)
		}
		if jobStatus != models.JobStatusOpen {
			return ErrJobNotOpen
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO bids (job_id, freelancer_id, amount, delivery_days, cover_letter, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')
			RETURNING id, created_at, updated_at
		`, bid.JobID, bid.FreelancerID, bid.Amount, bid.DeliveryDays, bid.CoverLetter).
			Scan(&bid.ID, &bid.CreatedAt, &bid.UpdatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return ErrBidAlreadyExists
			}
			return fmt.Errorf("job repository: create bid %w", err)
		}
		bid.Status = models.BidStatusPending

		// Счётчик ставок меняем арифметикой в БД, без read-modify-write.
		_, err = tx.ExecContext(ctx, `
			UPDATE job_postings SET current_bid_count = current_bid_count + 1, updated_at = NOW() WHERE id = $1
		`, bid.JobID)
		if err != nil {
			return fmt.Errorf("job repository: create bid increment counter %w", err)
		}

		return nil
	})
}

// GetBidByID возвращает ставку по идентификатору.
func (r *JobRepository) GetBidByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	return common.GetByID[models.Bid](ctx, r.db, "bids", id, ErrBidNotFound)
}

// ListBids возвращает ставки по заказу.
func (r *JobRepository) ListBids(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `
		SELECT * FROM bids WHERE job_id = $1 ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("job repository: list bids %w", err)
	}
	return bids, nil
}

// UpdateBidStatus выполняет переход ставки из допустимого исходного статуса.
// Предусловие зашито в сам UPDATE: при гонке побеждает ровно один писатель.
func (r *JobRepository) UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Bid, error) {
	tsColumn := ""
	switch to {
	case models.BidStatusRejected:
		tsColumn = ", rejected_at = NOW()"
	case models.BidStatusWithdrawn:
		tsColumn = ", withdrawn_at = NOW()"
	case models.BidStatusAccepted:
		tsColumn = ", accepted_at = NOW()"
	}

	var bid models.Bid
	query := fmt.Sprintf(`
		UPDATE bids SET status = $3, updated_at = NOW()%s
		WHERE id = $1 AND status = $2
		RETURNING *
	`, tsColumn)
	err := r.db.GetContext(ctx, &bid, query, id, from, to)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetBidByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrBidNotPending
		}
		return nil, fmt.Errorf("job repository: update bid status %w", err)
	}

	return &bid, nil
}

// WithdrawBid переводит ставку в withdrawn и декрементирует счётчик ставок заказа.
func (r *JobRepository) WithdrawBid(ctx context.Context, id uuid.UUID, freelancerID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &bid, `
			UPDATE bids SET status = 'withdrawn', withdrawn_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND freelancer_id = $2 AND status = 'pending'
			RETURNING *
		`, id, freelancerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				if _, getErr := r.GetBidByID(ctx, id); getErr != nil {
					return getErr
				}
				return ErrBidNotPending
			}
			return fmt.Errorf("job repository: withdraw bid %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE job_postings SET current_bid_count = current_bid_count - 1, updated_at = NOW() WHERE id = $1
		`, bid.JobID)
		if err != nil {
			return fmt.Errorf("job repository: withdraw bid decrement counter %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// AcceptBidResult содержит результат принятия ставки.
type AcceptBidResult struct {
	Bid          *models.Bid
	Trade        *models.Trade
	RejectedBids []uuid.UUID
}

// AcceptBid атомарно принимает ставку: создаёт Trade, переводит заказ в
// in_progress, ставку в accepted, а все прочие pending ставки — в rejected.
// Все четыре записи фиксируются одной транзакцией или не фиксируются вовсе.
// Повторный вызов по уже принятому заказу завершается конфликтом состояния,
// а не тихим no-op: побочный эффект отклонения чужих ставок не должен
// срабатывать дважды.
func (r *JobRepository) AcceptBid(ctx context.Context, jobID, bidID uuid.UUID, chainID int64) (*AcceptBidResult, error) {
	result := &AcceptBidResult{}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var job models.JobPosting
		err := tx.GetContext(ctx, &job, `SELECT * FROM job_postings WHERE id = $1 FOR UPDATE`, jobID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrJobNotFound
			}
			return fmt.Errorf("job repository: accept bid lock job %w", err)
		}
		if job.Status != models.JobStatusOpen {
			return ErrJobNotOpen
		}

		var bid models.Bid
		err = tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE id = $1 AND job_id = $2`, bidID, jobID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBidNotFound
			}
			return fmt.Errorf("job repository: accept bid get bid %w", err)
		}
		if bid.Status != models.BidStatusPending {
			return ErrBidNotPending
		}

		// (a) Создаём сделку-указатель на escrow с дедлайном депозита.
		deadline := time.Now().Add(depositDeadlineDays * 24 * time.Hour)
		var trade models.Trade
		err = tx.GetContext(ctx, &trade, `
			INSERT INTO trades (job_id, bid_id, buyer_id, seller_id, amount, chain_id, status, deposit_deadline)
			VALUES ($1, $2, $3, $4, $5, $6, 'pending_deposit', $7)
			RETURNING *
		`, jobID, bidID, job.ClientID, bid.FreelancerID, bid.Amount, chainID, deadline)
		if err != nil {
			return fmt.Errorf("job repository: accept bid create trade %w", err)
		}

		// (b) Заказ уходит в работу; предусловие open зашито в UPDATE.
		res, err := tx.ExecContext(ctx, `
			UPDATE job_postings SET status = 'in_progress', freelancer_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'open'
		`, jobID, bid.FreelancerID)
		if err != nil {
			return fmt.Errorf("job repository: accept bid update job %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return ErrJobNotOpen
		}

		// (c) Принимаем целевую ставку.
		res, err = tx.ExecContext(ctx, `
			UPDATE bids SET status = 'accepted', accepted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
		`, bidID)
		if err != nil {
			return fmt.Errorf("job repository: accept bid update bid %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return ErrBidNotPending
		}

		// (d) Остальные pending ставки отклоняем.
		rows, err := tx.QueryxContext(ctx, `
			UPDATE bids SET status = 'rejected', rejected_at = NOW(), updated_at = NOW()
			WHERE job_id = $1 AND id <> $2 AND status = 'pending'
			RETURNING id
		`, jobID, bidID)
		if err != nil {
			return fmt.Errorf("job repository: accept bid reject others %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var rejectedID uuid.UUID
			if err := rows.Scan(&rejectedID); err != nil {
				return fmt.Errorf("job repository: accept bid scan rejected %w", err)
			}
			result.RejectedBids = append(result.RejectedBids, rejectedID)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("job repository: accept bid reject others rows %w", err)
		}

		now := time.Now()
		bid.Status = models.BidStatusAccepted
		bid.AcceptedAt = &now
		result.Bid = &bid
		result.Trade = &trade
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
