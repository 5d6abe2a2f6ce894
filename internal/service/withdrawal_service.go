package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/worklance/worklance-backend/internal/goroutine"
	"github.com/worklance/worklance-backend/internal/logger"
	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/pkg/apperror"
	"github.com/worklance/worklance-backend/internal/validation"
)

// Параметры вывода средств.
const (
	MinWithdrawalAmount = 500.0
	WithdrawalFeeRate   = 0.05
)

// WithdrawalRepository описывает хранилище заявок на вывод.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, rejectionReason *string) (*models.Withdrawal, error)
}

// WithdrawalService реализует жизненный цикл заявки на вывод средств.
type WithdrawalService struct {
	repo     WithdrawalRepository
	notifier Notifier
}

// NewWithdrawalService создаёт сервис вывода средств.
func NewWithdrawalService(repo WithdrawalRepository, notifier Notifier) *WithdrawalService {
	return &WithdrawalService{repo: repo, notifier: notifier}
}

// RequestWithdrawalInput описывает заявку фрилансера.
type RequestWithdrawalInput struct {
	FreelancerID uuid.UUID
	Amount       float64
	Method       string
	Destination  string
}

// RequestWithdrawal создаёт заявку на вывод. Проверка достаточности баланса
// выполняется в хранилище под блокировкой строки пользователя, поэтому две
// конкурентные заявки не могут вдвоём пройти одну и ту же проверку.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, in RequestWithdrawalInput) (*models.Withdrawal, error) {
	if in.Amount < MinWithdrawalAmount {
		return nil, apperror.Newf(apperror.ErrCodeValidation,
			"минимальная сумма вывода %.0f", MinWithdrawalAmount)
	}
	if err := validation.ValidateAmount("сумма вывода", in.Amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateWithdrawalDestination(in.Destination); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	method := in.Method
	if method == "" {
		method = "bank_transfer"
	}

	fee := in.Amount * WithdrawalFeeRate
	w := &models.Withdrawal{
		FreelancerID: in.FreelancerID,
		Amount:       in.Amount,
		Fee:          fee,
		NetAmount:    in.Amount - fee,
		Method:       method,
		Destination:  in.Destination,
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyAsync(in.FreelancerID, models.EventWithdrawalRequested, "Заявка на вывод создана",
		"Сумма зарезервирована и исключена из доступного баланса", map[string]interface{}{
			"withdrawal_id": w.ID,
			"amount":        w.Amount,
			"net_amount":    w.NetAmount,
		})

	return w, nil
}

// GetWithdrawal возвращает заявку владельцу.
func (s *WithdrawalService) GetWithdrawal(ctx context.Context, id, freelancerID uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if w.FreelancerID != freelancerID {
		return nil, apperror.ErrForbidden
	}
	return w, nil
}

// ListWithdrawals возвращает заявки фрилансера.
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// StartProcessing переводит заявку pending -> processing.
func (s *WithdrawalService) StartProcessing(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.repo.UpdateStatus(ctx, id, models.WithdrawalStatusPending, models.WithdrawalStatusProcessing, nil)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return w, nil
}

// CompleteWithdrawal завершает выплату: processing -> completed. Покрытые
// начисления при этом помечаются как выведенные.
func (s *WithdrawalService) CompleteWithdrawal(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	w, err := s.repo.UpdateStatus(ctx, id, models.WithdrawalStatusProcessing, models.WithdrawalStatusCompleted, nil)
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyAsync(w.FreelancerID, models.EventWithdrawalProcessed, "Вывод завершён",
		"Средства отправлены по указанным реквизитам", map[string]interface{}{
			"withdrawal_id": w.ID,
			"net_amount":    w.NetAmount,
		})

	return w, nil
}

// RejectWithdrawal отклоняет заявку из pending или processing.
// Зарезервированная сумма возвращается в доступный баланс.
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина отклонения обязательна")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if current.Status != models.WithdrawalStatusPending && current.Status != models.WithdrawalStatusProcessing {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка на вывод находится в другом статусе")
	}

	w, err := s.repo.UpdateStatus(ctx, id, current.Status, models.WithdrawalStatusRejected, &reason)
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.notifyAsync(w.FreelancerID, models.EventWithdrawalProcessed, "Вывод отклонён",
		reason, map[string]interface{}{
			"withdrawal_id": w.ID,
			"amount":        w.Amount,
		})

	return w, nil
}

func (s *WithdrawalService) notifyAsync(userID uuid.UUID, event, title, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo(func() {
		if err := s.notifier.Notify(context.Background(), userID, event, title, message, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("withdrawal service: не удалось отправить уведомление")
		}
	})
}
