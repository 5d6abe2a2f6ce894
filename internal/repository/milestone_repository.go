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
	ErrMilestoneNotFound      = errors.New("milestone not found")
	ErrMilestoneStateConflict = errors.New("milestone is not in the required state")
	ErrPreviousNotApproved    = errors.New("previous milestone is not approved")
	ErrSortOrderTaken         = errors.New("sort order already taken for this job")
)

// MilestoneRepository отвечает за таблицы milestones и earnings заказа.
type MilestoneRepository struct {
	db *sqlx.DB
}

// NewMilestoneRepository создаёт экземпляр репозитория.
func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// Plan создаёт план этапов заказа одной вставкой.
func (r *MilestoneRepository) Plan(ctx context.Context, jobID uuid.UUID, milestones []models.Milestone) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		inserter := common.NewBatchInserter(tx, `
			INSERT INTO milestones (job_id, title, amount, due_date, sort_order, status, auto_release_enabled, extension)
		`, 8, 50)

		for i := range milestones {
			m := &milestones[i]
			ext, err := models.NoExtension().Value()
			if err != nil {
				return err
			}
			if err := inserter.Add(ctx, jobID, m.Title, m.Amount, m.DueDate, m.SortOrder,
				models.MilestoneStatusPending, m.AutoReleaseEnabled, ext); err != nil {
				return fmt.Errorf("milestone repository: plan %w", err)
			}
		}

		if err := inserter.Flush(ctx); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return ErrSortOrderTaken
			}
			return fmt.Errorf("milestone repository: plan flush %w", err)
		}
		return nil
	})
}

// GetByID возвращает этап по идентификатору.
func (r *MilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return common.GetByID[models.Milestone](ctx, r.db, "milestones", id, ErrMilestoneNotFound)
}

// ListByJob возвращает этапы заказа в порядке sort_order.
func (r *MilestoneRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones WHERE job_id = $1 ORDER BY sort_order ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("milestone repository: list by job %w", err)
	}
	return milestones, nil
}

// Start переводит этап pending -> in_progress. Предусловие (этап pending и все
// предыдущие этапы approved) зашито в сам UPDATE, поэтому гонка двух вызовов
// даёт ровно одного победителя.
func (r *MilestoneRepository) Start(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.GetContext(ctx, &m, `
		UPDATE milestones SET status = 'in_progress', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		  AND NOT EXISTS (
			SELECT 1 FROM milestones prev
			WHERE prev.job_id = milestones.job_id
			  AND prev.sort_order < milestones.sort_order
			  AND prev.status <> 'approved'
		  )
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyStartFailure(ctx, id)
		}
		return nil, fmt.Errorf("milestone repository: start %w", err)
	}
	return &m, nil
}

// classifyStartFailure выясняет, почему условный UPDATE не нашёл строку.
func (r *MilestoneRepository) classifyStartFailure(ctx context.Context, id uuid.UUID) error {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m.Status != models.MilestoneStatusPending {
		return ErrMilestoneStateConflict
	}
	return ErrPreviousNotApproved
}

// Submit переводит этап in_progress -> submitted и фиксирует ссылку на сдачу.
func (r *MilestoneRepository) Submit(ctx context.Context, id uuid.UUID, submissionURL string, deliverableID *uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.GetContext(ctx, &m, `
		UPDATE milestones
		SET status = 'submitted', submission_url = $2, deliverable_id = $3, submitted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
		RETURNING *
	`, id, submissionURL, deliverableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrMilestoneStateConflict
		}
		return nil, fmt.Errorf("milestone repository: submit %w", err)
	}
	return &m, nil
}

// Dispute переводит этап в disputed из in_progress либо submitted.
// Дальнейших автоматических переходов из disputed нет.
func (r *MilestoneRepository) Dispute(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.GetContext(ctx, &m, `
		UPDATE milestones SET status = 'disputed', updated_at = NOW()
		WHERE id = $1 AND status IN ('in_progress', 'submitted')
		RETURNING *
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrMilestoneStateConflict
		}
		return nil, fmt.Errorf("milestone repository: dispute %w", err)
	}
	return &m, nil
}

// ApproveParams описывает параметры одобрения этапа.
type ApproveParams struct {
	MilestoneID uuid.UUID
	Feedback    *string
	TipAmount   float64
	Extension   models.MilestoneExtension
}

// ApproveResult содержит итог одобрения этапа.
type ApproveResult struct {
	Milestone    *models.Milestone
	Earnings     []models.Earning
	ClientID     uuid.UUID
	FreelancerID uuid.UUID
	JobCompleted bool
}

// Approve выполняет одобрение этапа одной транзакцией: условный переход
// submitted -> approved, начисления, проверка завершения заказа. Условие
// status = 'submitted' в UPDATE — основной механизм защиты от двойного
// освобождения средств: при гонке клиента и авторелиза начисление создаст
// ровно один победитель.
func (r *MilestoneRepository) Approve(ctx context.Context, p ApproveParams) (*ApproveResult, error) {
	result := &ApproveResult{}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		ext, err := p.Extension.Value()
		if err != nil {
			return err
		}

		var m models.Milestone
		err = tx.GetContext(ctx, &m, `
			UPDATE milestones
			SET status = 'approved', feedback = $2, extension = $3, approved_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'submitted'
			RETURNING *
		`, p.MilestoneID, p.Feedback, ext)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				var status string
				getErr := tx.GetContext(ctx, &status, `SELECT status FROM milestones WHERE id = $1`, p.MilestoneID)
				if errors.Is(getErr, sql.ErrNoRows) {
					return ErrMilestoneNotFound
				}
				if getErr != nil {
					return fmt.Errorf("milestone repository: approve read status %w", getErr)
				}
				return ErrMilestoneStateConflict
			}
			return fmt.Errorf("milestone repository: approve %w", err)
		}

		// Блокировка строки заказа сериализует параллельные одобрения этапов
		// одного заказа: без неё два одобрения последних этапов считают друг
		// друга незавершёнными и заказ навсегда остаётся in_progress.
		var job models.JobPosting
		if err := tx.GetContext(ctx, &job, `SELECT * FROM job_postings WHERE id = $1 FOR UPDATE`, m.JobID); err != nil {
			return fmt.Errorf("milestone repository: approve get job %w", err)
		}
		if job.FreelancerID == nil {
			return fmt.Errorf("milestone repository: approve: у заказа %s нет исполнителя", job.ID)
		}
		result.ClientID = job.ClientID
		result.FreelancerID = *job.FreelancerID

		// Начисление за этап — сразу completed: средства освобождены из escrow.
		earning, err := insertEarning(ctx, tx, *job.FreelancerID, job.ID, &m.ID, m.Amount, models.EarningTypeMilestone)
		if err != nil {
			return err
		}
		result.Earnings = append(result.Earnings, *earning)

		if p.TipAmount > 0 {
			tip, err := insertEarning(ctx, tx, *job.FreelancerID, job.ID, &m.ID, p.TipAmount, models.EarningTypeTip)
			if err != nil {
				return err
			}
			result.Earnings = append(result.Earnings, *tip)
		}

		// Заказ завершён, когда одобрен последний этап.
		var remaining int
		err = tx.GetContext(ctx, &remaining, `
			SELECT COUNT(*) FROM milestones WHERE job_id = $1 AND status <> 'approved'
		`, m.JobID)
		if err != nil {
			return fmt.Errorf("milestone repository: approve count remaining %w", err)
		}
		if remaining == 0 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE job_postings SET status = 'completed', updated_at = NOW()
				WHERE id = $1 AND status = 'in_progress'
			`, m.JobID); err != nil {
				return fmt.Errorf("milestone repository: approve complete job %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE trades SET status = 'completed', updated_at = NOW()
				WHERE job_id = $1 AND status = 'active'
			`, m.JobID); err != nil {
				return fmt.Errorf("milestone repository: approve complete trade %w", err)
			}
			result.JobCompleted = true
		}

		result.Milestone = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func insertEarning(ctx context.Context, tx *sqlx.Tx, freelancerID, jobID uuid.UUID, milestoneID *uuid.UUID, amount float64, earningType string) (*models.Earning, error) {
	var e models.Earning
	err := tx.GetContext(ctx, &e, `
		INSERT INTO earnings (freelancer_id, job_id, milestone_id, amount, type, status)
		VALUES ($1, $2, $3, $4, $5, 'completed')
		RETURNING *
	`, freelancerID, jobID, milestoneID, amount, earningType)
	if err != nil {
		return nil, fmt.Errorf("milestone repository: insert earning %w", err)
	}
	return &e, nil
}

// ListAutoReleasable возвращает этапы, подлежащие авторелизу: submitted,
// с включённым авторелизом и сдачей раньше отметки cutoff.
func (r *MilestoneRepository) ListAutoReleasable(ctx context.Context, cutoff time.Time) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones
		WHERE status = 'submitted' AND auto_release_enabled = TRUE AND submitted_at <= $1
		ORDER BY submitted_at ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("milestone repository: list auto releasable %w", err)
	}
	return milestones, nil
}

// OverdueMilestone — этап с просроченным дедлайном и адресатами уведомления.
type OverdueMilestone struct {
	models.Milestone
	ClientID     uuid.UUID  `db:"client_id"`
	FreelancerID *uuid.UUID `db:"jp_freelancer_id"`
}

// ListOverdue возвращает незакрытые этапы с истёкшим due_date.
// Состояние этапов не меняется, по ним только рассылаются уведомления.
func (r *MilestoneRepository) ListOverdue(ctx context.Context, now time.Time) ([]OverdueMilestone, error) {
	var milestones []OverdueMilestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT m.*, j.client_id AS client_id, j.freelancer_id AS jp_freelancer_id
		FROM milestones m
		JOIN job_postings j ON j.id = m.job_id
		WHERE m.status IN ('pending', 'in_progress') AND m.due_date IS NOT NULL AND m.due_date < $1
		ORDER BY m.due_date ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("milestone repository: list overdue %w", err)
	}
	return milestones, nil
}
