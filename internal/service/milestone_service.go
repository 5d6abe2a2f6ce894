package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/worklance/worklance-backend/internal/escrow"
	"github.com/worklance/worklance-backend/internal/goroutine"
	"github.com/worklance/worklance-backend/internal/logger"
	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/pkg/apperror"
	"github.com/worklance/worklance-backend/internal/repository"
	"github.com/worklance/worklance-backend/internal/validation"
)

// MilestoneRepository описывает взаимодействие сервиса с хранилищем этапов.
type MilestoneRepository interface {
	Plan(ctx context.Context, jobID uuid.UUID, milestones []models.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error)
	Start(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	Submit(ctx context.Context, id uuid.UUID, submissionURL string, deliverableID *uuid.UUID) (*models.Milestone, error)
	Dispute(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	Approve(ctx context.Context, p repository.ApproveParams) (*repository.ApproveResult, error)
}

// JobReader отдаёт заказы для проверок принадлежности.
type JobReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
}

// TradeReader отдаёт сделку заказа.
type TradeReader interface {
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Trade, error)
}

// MilestoneService реализует жизненный цикл этапов и освобождение оплаты.
type MilestoneService struct {
	repo     MilestoneRepository
	jobs     JobReader
	trades   TradeReader
	adapter  escrow.Adapter
	notifier Notifier
}

// NewMilestoneService создаёт сервис этапов.
func NewMilestoneService(repo MilestoneRepository, jobs JobReader, trades TradeReader, adapter escrow.Adapter, notifier Notifier) *MilestoneService {
	return &MilestoneService{
		repo:     repo,
		jobs:     jobs,
		trades:   trades,
		adapter:  adapter,
		notifier: notifier,
	}
}

// MilestonePlanItem описывает один этап в плане.
type MilestonePlanItem struct {
	Title              string
	Amount             float64
	DueDate            *time.Time
	AutoReleaseEnabled bool
}

// ApproveInput описывает одобрение этапа. AutoReleasedAt задаётся только
// системным вызовом из цикла авторелиза; расширение в обоих случаях строится
// по данным сделки, чтобы авторелиз не терял дескриптор освобождения.
type ApproveInput struct {
	MilestoneID    uuid.UUID
	Actor          models.Actor
	Feedback       *string
	TipAmount      float64
	AutoReleasedAt *time.Time
}

// SubmitInput описывает сдачу этапа фрилансером.
type SubmitInput struct {
	MilestoneID   uuid.UUID
	FreelancerID  uuid.UUID
	SubmissionURL string
	DeliverableID *uuid.UUID
}

// PlanMilestones создаёт план этапов заказа. План задаётся один раз,
// суммарный объём этапов должен совпадать с суммой сделки.
func (s *MilestoneService) PlanMilestones(ctx context.Context, jobID, clientID uuid.UUID, items []MilestonePlanItem) ([]models.Milestone, error) {
	if len(items) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "план должен содержать хотя бы один этап")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != models.JobStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeConflict, "план этапов задаётся после принятия ставки")
	}

	existing, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if len(existing) > 0 {
		return nil, apperror.New(apperror.ErrCodeConflict, "план этапов уже создан")
	}

	trade, err := s.trades.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	var total float64
	milestones := make([]models.Milestone, 0, len(items))
	for i, item := range items {
		if err := validation.ValidateMilestoneTitle(item.Title); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		if err := validation.ValidateAmount("сумма этапа", item.Amount); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		total += item.Amount
		milestones = append(milestones, models.Milestone{
			JobID:              jobID,
			Title:              item.Title,
			Amount:             item.Amount,
			DueDate:            item.DueDate,
			SortOrder:          i + 1,
			AutoReleaseEnabled: item.AutoReleaseEnabled,
		})
	}

	if total != trade.Amount {
		return nil, apperror.Newf(apperror.ErrCodeValidation,
			"сумма этапов %.2f не совпадает с суммой сделки %.2f", total, trade.Amount)
	}

	if err := s.repo.Plan(ctx, jobID, milestones); err != nil {
		return nil, translateRepoError(err)
	}

	return s.repo.ListByJob(ctx, jobID)
}

// ListMilestones возвращает этапы заказа.
func (s *MilestoneService) ListMilestones(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error) {
	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return nil, translateRepoError(err)
	}
	milestones, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return milestones, nil
}

// GetMilestone возвращает этап по идентификатору.
func (s *MilestoneService) GetMilestone(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return m, nil
}

// StartMilestone переводит этап в работу. Доступно только исполнителю заказа
// и только после подтверждения депозита.
func (s *MilestoneService) StartMilestone(ctx context.Context, milestoneID, freelancerID uuid.UUID) (*models.Milestone, error) {
	m, job, err := s.milestoneWithJob(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if job.FreelancerID == nil || *job.FreelancerID != freelancerID {
		return nil, apperror.ErrForbidden
	}

	trade, err := s.trades.GetByJobID(ctx, m.JobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if trade.Status != models.TradeStatusActive {
		return nil, apperror.New(apperror.ErrCodeConflict, "депозит по сделке ещё не подтверждён")
	}

	started, err := s.repo.Start(ctx, milestoneID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return started, nil
}

// SubmitMilestone фиксирует сдачу этапа фрилансером.
func (s *MilestoneService) SubmitMilestone(ctx context.Context, in SubmitInput) (*models.Milestone, error) {
	if err := validation.ValidateSubmissionURL(&in.SubmissionURL); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.SubmissionURL == "" && in.DeliverableID == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "нужна ссылка на результат или приложенный файл")
	}

	m, job, err := s.milestoneWithJob(ctx, in.MilestoneID)
	if err != nil {
		return nil, err
	}
	if job.FreelancerID == nil || *job.FreelancerID != in.FreelancerID {
		return nil, apperror.ErrForbidden
	}

	submitted, err := s.repo.Submit(ctx, m.ID, in.SubmissionURL, in.DeliverableID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyAsync(job.ClientID, models.EventMilestoneSubmitted, "Этап сдан",
		"Фрилансер сдал этап на проверку", map[string]interface{}{
			"job_id":       job.ID,
			"milestone_id": submitted.ID,
			"submitted_at": submitted.SubmittedAt,
		})

	return submitted, nil
}

// ApproveMilestone одобряет сданный этап и освобождает оплату. Пользовательский
// вызов доступен только клиенту заказа; системный вызов из цикла авторелиза
// проверку прав не проходит.
func (s *MilestoneService) ApproveMilestone(ctx context.Context, in ApproveInput) (*repository.ApproveResult, error) {
	if in.TipAmount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "чаевые не могут быть отрицательными")
	}
	if in.Feedback != nil {
		if err := validation.ValidateFeedback(in.Feedback); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	m, job, err := s.milestoneWithJob(ctx, in.MilestoneID)
	if err != nil {
		return nil, err
	}
	if !in.Actor.IsSystem() && !in.Actor.Is(job.ClientID) {
		return nil, apperror.ErrForbidden
	}

	// Дескриптор строится и для ручного одобрения, и для авторелиза: внешний
	// signer должен узнать об освобождении средств в обоих случаях.
	descriptor := s.buildReleaseDescriptor(ctx, m.JobID)
	var extension models.MilestoneExtension
	switch {
	case in.AutoReleasedAt != nil:
		extension = models.AutoReleasedExtension(*in.AutoReleasedAt, descriptor)
	case descriptor != nil:
		extension = models.PendingReleaseExtension(*descriptor)
	default:
		extension = models.NoExtension()
	}

	result, err := s.repo.Approve(ctx, repository.ApproveParams{
		MilestoneID: in.MilestoneID,
		Feedback:    in.Feedback,
		TipAmount:   in.TipAmount,
		Extension:   extension,
	})
	if err != nil {
		return nil, translateRepoError(err)
	}

	event := models.EventMilestoneApproved
	message := "Оплата этапа освобождена"
	if extension.IsAutoReleased() {
		event = models.EventMilestoneAutoPaid
		message = "Срок проверки истёк, оплата этапа освобождена автоматически"
	}
	s.notifyAsync(result.FreelancerID, event, "Этап одобрен", message, map[string]interface{}{
		"job_id":       m.JobID,
		"milestone_id": in.MilestoneID,
		"amount":       result.Milestone.Amount,
		"tip":          in.TipAmount,
	})
	if extension.IsAutoReleased() {
		s.notifyAsync(result.ClientID, models.EventMilestoneAutoPaid, "Авторелиз этапа",
			"Срок проверки истёк, оплата этапа освобождена автоматически", map[string]interface{}{
				"job_id":       m.JobID,
				"milestone_id": in.MilestoneID,
				"amount":       result.Milestone.Amount,
			})
	}

	if result.JobCompleted {
		s.notifyAsync(result.ClientID, models.EventJobCompleted, "Заказ завершён",
			"Все этапы заказа одобрены", map[string]interface{}{"job_id": m.JobID})
		s.notifyAsync(result.FreelancerID, models.EventJobCompleted, "Заказ завершён",
			"Все этапы заказа одобрены", map[string]interface{}{"job_id": m.JobID})
	}

	return result, nil
}

// DisputeMilestone открывает спор по этапу. Доступно обеим сторонам сделки.
func (s *MilestoneService) DisputeMilestone(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, error) {
	m, job, err := s.milestoneWithJob(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	isClient := job.ClientID == userID
	isFreelancer := job.FreelancerID != nil && *job.FreelancerID == userID
	if !isClient && !isFreelancer {
		return nil, apperror.ErrForbidden
	}

	disputed, err := s.repo.Dispute(ctx, m.ID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	// Уведомляем противоположную сторону.
	counterparty := job.ClientID
	if isClient && job.FreelancerID != nil {
		counterparty = *job.FreelancerID
	}
	s.notifyAsync(counterparty, models.EventMilestoneDisputed, "Открыт спор",
		"По этапу открыт спор, авторелиз остановлен", map[string]interface{}{
			"job_id":       job.ID,
			"milestone_id": disputed.ID,
		})

	return disputed, nil
}

// buildReleaseDescriptor запрашивает у escrow-адаптера дескриптор освобождения
// средств. Запись best-effort: без подтверждённого депозита или при недоступном
// адаптере возвращается nil и этап одобряется без дескриптора.
func (s *MilestoneService) buildReleaseDescriptor(ctx context.Context, jobID uuid.UUID) *models.ReleaseDescriptor {
	if s.adapter == nil {
		return nil
	}

	trade, err := s.trades.GetByJobID(ctx, jobID)
	if err != nil || trade.EscrowID == nil {
		return nil
	}

	descriptor, err := s.adapter.GetReleaseDescriptor(ctx, *trade.EscrowID)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"job_id": jobID,
				"error":  err.Error(),
			}).Warn("milestone service: не удалось получить дескриптор освобождения")
		}
		return nil
	}

	return &descriptor
}

func (s *MilestoneService) milestoneWithJob(ctx context.Context, milestoneID uuid.UUID) (*models.Milestone, *models.JobPosting, error) {
	m, err := s.repo.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	job, err := s.jobs.GetByID(ctx, m.JobID)
	if err != nil {
		return nil, nil, translateRepoError(err)
	}
	return m, job, nil
}

func (s *MilestoneService) notifyAsync(userID uuid.UUID, event, title, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		if err := s.notifier.Notify(context.Background(), userID, event, title, message, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("milestone service: не удалось отправить уведомление")
		}
	})
}
