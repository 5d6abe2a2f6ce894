package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/worklance/worklance-backend/internal/logger"
	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/repository"
)

// Грация на проверку сданного этапа до автоматического освобождения оплаты.
const AutoReleaseGracePeriod = 72 * time.Hour

// ReconcilerMilestoneRepository — подмножество хранилища этапов для цикла сверки.
type ReconcilerMilestoneRepository interface {
	ListAutoReleasable(ctx context.Context, cutoff time.Time) ([]models.Milestone, error)
	ListOverdue(ctx context.Context, now time.Time) ([]repository.OverdueMilestone, error)
}

// MilestoneApprover одобряет этап. В цикле сверки это MilestoneService.
type MilestoneApprover interface {
	ApproveMilestone(ctx context.Context, in ApproveInput) (*repository.ApproveResult, error)
}

// ReconcilerService — периодический цикл авторелиза и контроля дедлайнов.
// Запуск идемпотентен: каждый проход заново выбирает этапы по предикату, и
// этап, одобренный предыдущим проходом (или клиентом в гонке), под предикат
// просто не попадает.
type ReconcilerService struct {
	milestones ReconcilerMilestoneRepository
	approver   MilestoneApprover
	notifier   Notifier
	grace      time.Duration
	now        func() time.Time
}

// ReconcilerReport — итог одного прохода.
type ReconcilerReport struct {
	StartedAt     time.Time   `json:"started_at"`
	AutoReleased  []uuid.UUID `json:"auto_released"`
	Skipped       []uuid.UUID `json:"skipped"`
	OverdueNotice int         `json:"overdue_notices"`
}

// NewReconcilerService создаёт сервис сверки.
func NewReconcilerService(milestones ReconcilerMilestoneRepository, approver MilestoneApprover, notifier Notifier) *ReconcilerService {
	return &ReconcilerService{
		milestones: milestones,
		approver:   approver,
		notifier:   notifier,
		grace:      AutoReleaseGracePeriod,
		now:        time.Now,
	}
}

// Run выполняет один проход: авторелиз этапов с истёкшей грацией и
// уведомления по просроченным дедлайнам. Ошибка одного этапа не прерывает
// обработку остальных.
func (s *ReconcilerService) Run(ctx context.Context) (*ReconcilerReport, error) {
	started := s.now()
	report := &ReconcilerReport{StartedAt: started}

	cutoff := started.Add(-s.grace)
	candidates, err := s.milestones.ListAutoReleasable(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	for _, m := range candidates {
		releasedAt := started
		_, err := s.approver.ApproveMilestone(ctx, ApproveInput{
			MilestoneID:    m.ID,
			Actor:          models.SystemActor(),
			AutoReleasedAt: &releasedAt,
		})
		if err != nil {
			// Конфликт состояния — этап успел одобрить или оспорить клиент.
			report.Skipped = append(report.Skipped, m.ID)
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"milestone_id": m.ID,
					"error":        err.Error(),
				}).Info("reconciler: этап пропущен")
			}
			continue
		}
		report.AutoReleased = append(report.AutoReleased, m.ID)
	}

	overdue, err := s.milestones.ListOverdue(ctx, started)
	if err != nil {
		return report, err
	}
	for _, o := range overdue {
		data := map[string]interface{}{
			"job_id":       o.JobID,
			"milestone_id": o.ID,
			"due_date":     o.DueDate,
		}
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, o.ClientID, models.EventMilestoneOverdue,
				"Этап просрочен", "Дедлайн этапа прошёл, работа не сдана", data)
			if o.FreelancerID != nil {
				_ = s.notifier.Notify(ctx, *o.FreelancerID, models.EventMilestoneOverdue,
					"Этап просрочен", "Дедлайн этапа прошёл, работа не сдана", data)
			}
		}
		report.OverdueNotice++
	}

	if logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"auto_released": len(report.AutoReleased),
			"skipped":       len(report.Skipped),
			"overdue":       report.OverdueNotice,
		}).Info("reconciler: проход завершён")
	}

	return report, nil
}
