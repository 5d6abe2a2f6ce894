package service

import (
	"errors"

	"github.com/worklance/worklance-backend/internal/pkg/apperror"
	"github.com/worklance/worklance-backend/internal/repository"
)

// translateRepoError переводит сентинельные ошибки хранилища в apperror
// с корректным HTTP-статусом. Неизвестные ошибки возвращаются как есть.
func translateRepoError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, repository.ErrJobNotFound):
		return apperror.ErrJobNotFound
	case errors.Is(err, repository.ErrBidNotFound):
		return apperror.ErrBidNotFound
	case errors.Is(err, repository.ErrMilestoneNotFound):
		return apperror.ErrMilestoneNotFound
	case errors.Is(err, repository.ErrTradeNotFound):
		return apperror.ErrTradeNotFound
	case errors.Is(err, repository.ErrWithdrawalNotFound):
		return apperror.ErrWithdrawalNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrDeliverableNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "файл не найден")
	case errors.Is(err, repository.ErrNotificationNotFound):
		return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
	case errors.Is(err, repository.ErrJobNotOpen):
		return apperror.New(apperror.ErrCodeConflict, "заказ уже не открыт")
	case errors.Is(err, repository.ErrBidNotPending):
		return apperror.New(apperror.ErrCodeConflict, "ставка уже обработана")
	case errors.Is(err, repository.ErrBidAlreadyExists):
		return apperror.New(apperror.ErrCodeConflict, "вы уже сделали ставку на этот заказ")
	case errors.Is(err, repository.ErrJobHasProgress):
		return apperror.New(apperror.ErrCodeConflict, "по заказу уже идёт работа")
	case errors.Is(err, repository.ErrMilestoneStateConflict):
		return apperror.New(apperror.ErrCodeConflict, "этап находится в другом статусе")
	case errors.Is(err, repository.ErrPreviousNotApproved):
		return apperror.New(apperror.ErrCodeConflict, "предыдущий этап ещё не одобрен")
	case errors.Is(err, repository.ErrSortOrderTaken):
		return apperror.New(apperror.ErrCodeConflict, "порядковый номер этапа уже занят")
	case errors.Is(err, repository.ErrTradeStateConflict):
		return apperror.New(apperror.ErrCodeConflict, "сделка находится в другом статусе")
	case errors.Is(err, repository.ErrWithdrawalStateConflict):
		return apperror.New(apperror.ErrCodeConflict, "заявка на вывод находится в другом статусе")
	case errors.Is(err, repository.ErrInsufficientBalance):
		return apperror.ErrInsufficientBalance
	default:
		return err
	}
}
