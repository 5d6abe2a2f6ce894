package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/worklance/worklance-backend/internal/goroutine"
	"github.com/worklance/worklance-backend/internal/logger"
	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/pkg/apperror"
	"github.com/worklance/worklance-backend/internal/repository"
	"github.com/worklance/worklance-backend/internal/validation"
)

// JobRepository описывает взаимодействие сервиса с хранилищем заказов и ставок.
type JobRepository interface {
	Create(ctx context.Context, job *models.JobPosting) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.JobPosting, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.JobPosting, error)
	Delete(ctx context.Context, id uuid.UUID, clientID uuid.UUID) error
	CreateBid(ctx context.Context, bid *models.Bid) error
	GetBidByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	ListBids(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error)
	UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Bid, error)
	WithdrawBid(ctx context.Context, id uuid.UUID, freelancerID uuid.UUID) (*models.Bid, error)
	AcceptBid(ctx context.Context, jobID, bidID uuid.UUID, chainID int64) (*repository.AcceptBidResult, error)
}

// TradeRepositoryForJobs описывает операции над сделками, доступные из сервиса заказов.
type TradeRepositoryForJobs interface {
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Trade, error)
	ConfirmDeposit(ctx context.Context, jobID uuid.UUID, escrowID string) (*models.Trade, error)
}

// Notifier описывает контракт доставки уведомления пользователю.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event, title, message string, data interface{}) error
}

// JobService содержит бизнес-логику заказов: публикация, ставки, принятие.
type JobService struct {
	repo     JobRepository
	trades   TradeRepositoryForJobs
	notifier Notifier
	chainID  int64
}

// NewJobService создаёт сервис заказов.
func NewJobService(repo JobRepository, trades TradeRepositoryForJobs, notifier Notifier, chainID int64) *JobService {
	return &JobService{
		repo:     repo,
		trades:   trades,
		notifier: notifier,
		chainID:  chainID,
	}
}

// CreateJobInput описывает входные данные публикации заказа.
type CreateJobInput struct {
	ClientID    uuid.UUID
	Title       string
	Description string
	Currency    string
}

// SubmitBidInput описывает входные данные ставки.
type SubmitBidInput struct {
	JobID        uuid.UUID
	FreelancerID uuid.UUID
	Amount       float64
	DeliveryDays int
	CoverLetter  *string
}

// CreateJob публикует новый заказ.
func (s *JobService) CreateJob(ctx context.Context, in CreateJobInput) (*models.JobPosting, error) {
	if err := validation.ValidateJobTitle(in.Title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateJobDescription(in.Description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	currency := in.Currency
	if currency == "" {
		currency = "USDT"
	}

	job := &models.JobPosting{
		ClientID:    in.ClientID,
		Title:       in.Title,
		Description: in.Description,
		Currency:    currency,
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, translateRepoError(err)
	}

	return job, nil
}

// GetJob возвращает заказ по идентификатору.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return job, nil
}

// ListMyJobs возвращает заказы пользователя с учётом его роли.
func (s *JobService) ListMyJobs(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]models.JobPosting, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if role == models.RoleFreelancer {
		return s.repo.ListByFreelancer(ctx, userID, limit, offset)
	}
	return s.repo.ListByClient(ctx, userID, limit, offset)
}

// DeleteJob удаляет заказ клиента, пока по нему нет работы.
func (s *JobService) DeleteJob(ctx context.Context, id uuid.UUID, clientID uuid.UUID) error {
	return translateRepoError(s.repo.Delete(ctx, id, clientID))
}

// SubmitBid создаёт ставку фрилансера на открытый заказ.
func (s *JobService) SubmitBid(ctx context.Context, in SubmitBidInput) (*models.Bid, error) {
	if err := validation.ValidateAmount("сумма ставки", in.Amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDeliveryDays(in.DeliveryDays); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.CoverLetter != nil && *in.CoverLetter != "" {
		if err := validation.ValidateCoverLetter(*in.CoverLetter); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	job, err := s.repo.GetByID(ctx, in.JobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if job.ClientID == in.FreelancerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя делать ставку на собственный заказ")
	}

	bid := &models.Bid{
		JobID:        in.JobID,
		FreelancerID: in.FreelancerID,
		Amount:       in.Amount,
		DeliveryDays: in.DeliveryDays,
		CoverLetter:  in.CoverLetter,
	}

	if err := s.repo.CreateBid(ctx, bid); err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyAsync(job.ClientID, models.EventBidSubmitted, "Новая ставка",
		"На ваш заказ поступила новая ставка", map[string]interface{}{
			"job_id": job.ID,
			"bid_id": bid.ID,
			"amount": bid.Amount,
		})

	return bid, nil
}

// ListBids возвращает ставки по заказу.
func (s *JobService) ListBids(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	if _, err := s.repo.GetByID(ctx, jobID); err != nil {
		return nil, translateRepoError(err)
	}
	return s.repo.ListBids(ctx, jobID)
}

// ShortlistBid помечает ставку как отобранную клиентом.
func (s *JobService) ShortlistBid(ctx context.Context, bidID, clientID uuid.UUID) (*models.Bid, error) {
	if _, err := s.bidOwnedJob(ctx, bidID, clientID); err != nil {
		return nil, err
	}

	bid, err := s.repo.UpdateBidStatus(ctx, bidID, models.BidStatusPending, models.BidStatusShortlisted)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return bid, nil
}

// RejectBid отклоняет ставку. Допускается из pending и shortlisted.
func (s *JobService) RejectBid(ctx context.Context, bidID, clientID uuid.UUID) (*models.Bid, error) {
	bid, err := s.bidOwnedJob(ctx, bidID, clientID)
	if err != nil {
		return nil, err
	}
	if bid.Status != models.BidStatusPending && bid.Status != models.BidStatusShortlisted {
		return nil, apperror.New(apperror.ErrCodeConflict, "ставка уже обработана")
	}

	updated, err := s.repo.UpdateBidStatus(ctx, bidID, bid.Status, models.BidStatusRejected)
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyAsync(updated.FreelancerID, models.EventBidRejected, "Ставка отклонена",
		"Клиент отклонил вашу ставку", map[string]interface{}{
			"job_id": updated.JobID,
			"bid_id": updated.ID,
		})

	return updated, nil
}

// WithdrawBid отзывает собственную ставку фрилансера.
func (s *JobService) WithdrawBid(ctx context.Context, bidID, freelancerID uuid.UUID) (*models.Bid, error) {
	bid, err := s.repo.WithdrawBid(ctx, bidID, freelancerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return bid, nil
}

// AcceptBid принимает ставку от имени клиента: создаёт сделку, закрепляет
// исполнителя за заказом и отклоняет остальные ставки. Принять ставку по
// одному заказу можно ровно один раз.
func (s *JobService) AcceptBid(ctx context.Context, jobID, bidID, clientID uuid.UUID) (*repository.AcceptBidResult, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}

	result, err := s.repo.AcceptBid(ctx, jobID, bidID, s.chainID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyAsync(result.Bid.FreelancerID, models.EventBidAccepted, "Ставка принята",
		"Клиент принял вашу ставку, ожидается депозит в escrow", map[string]interface{}{
			"job_id":           jobID,
			"bid_id":           bidID,
			"trade_id":         result.Trade.ID,
			"deposit_deadline": result.Trade.DepositDeadline,
		})

	if s.notifier != nil {
		for _, rejectedID := range result.RejectedBids {
			rejectedID := rejectedID
			goroutine.SafeGo(func() {
				bid, err := s.repo.GetBidByID(context.Background(), rejectedID)
				if err != nil {
					return
				}
				_ = s.notifier.Notify(context.Background(), bid.FreelancerID, models.EventBidRejected,
					"Ставка отклонена", "Клиент выбрал другого исполнителя", map[string]interface{}{
						"job_id": jobID,
						"bid_id": rejectedID,
					})
			})
		}
	}

	return result, nil
}

// GetTrade возвращает сделку по заказу.
func (s *JobService) GetTrade(ctx context.Context, jobID uuid.UUID) (*models.Trade, error) {
	trade, err := s.trades.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return trade, nil
}

// ConfirmDeposit фиксирует депозит клиента в escrow и активирует сделку.
func (s *JobService) ConfirmDeposit(ctx context.Context, jobID, clientID uuid.UUID, escrowID string) (*models.Trade, error) {
	if escrowID == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "идентификатор escrow обязателен")
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}

	trade, err := s.trades.ConfirmDeposit(ctx, jobID, escrowID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	if job.FreelancerID != nil {
		s.notifyAsync(*job.FreelancerID, models.EventDepositConfirmed, "Депозит внесён",
			"Клиент внёс депозит, можно приступать к работе", map[string]interface{}{
				"job_id":   jobID,
				"trade_id": trade.ID,
			})
	}

	return trade, nil
}

// bidOwnedJob проверяет, что ставка относится к заказу клиента.
func (s *JobService) bidOwnedJob(ctx context.Context, bidID, clientID uuid.UUID) (*models.Bid, error) {
	bid, err := s.repo.GetBidByID(ctx, bidID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	job, err := s.repo.GetByID(ctx, bid.JobID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if job.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}

	return bid, nil
}

// notifyAsync отправляет уведомление вне транзакции запроса.
func (s *JobService) notifyAsync(userID uuid.UUID, event, title, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		if err := s.notifier.Notify(context.Background(), userID, event, title, message, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("job service: не удалось отправить уведомление")
		}
	})
}
