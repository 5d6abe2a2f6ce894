package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/worklance/worklance-backend/internal/models"
)

// EarningRepository описывает чтение реестра начислений.
type EarningRepository interface {
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Earning, error)
	GetBalance(ctx context.Context, freelancerID uuid.UUID) (*models.Balance, error)
}

// LedgerService отдаёт начисления и производный баланс фрилансера.
type LedgerService struct {
	repo EarningRepository
}

// NewLedgerService создаёт сервис реестра начислений.
func NewLedgerService(repo EarningRepository) *LedgerService {
	return &LedgerService{repo: repo}
}

// ListEarnings возвращает историю начислений фрилансера.
func (s *LedgerService) ListEarnings(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Earning, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, limit, offset)
}

// GetBalance возвращает доступный баланс фрилансера.
func (s *LedgerService) GetBalance(ctx context.Context, freelancerID uuid.UUID) (*models.Balance, error) {
	balance, err := s.repo.GetBalance(ctx, freelancerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return balance, nil
}
