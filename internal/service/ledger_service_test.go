package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/worklance/worklance-backend/internal/models"
)

type mockEarningRepo struct {
	mock.Mock
}

func (m *mockEarningRepo) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, limit, offset int) ([]models.Earning, error) {
	args := m.Called(ctx, freelancerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Earning), args.Error(1)
}

func (m *mockEarningRepo) GetBalance(ctx context.Context, freelancerID uuid.UUID) (*models.Balance, error) {
	args := m.Called(ctx, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Balance), args.Error(1)
}

func TestLedgerService_ListEarnings_ClampsPagination(t *testing.T) {
	repo := new(mockEarningRepo)
	svc := NewLedgerService(repo)
	freelancerID := uuid.New()

	repo.On("ListByFreelancer", mock.Anything, freelancerID, 20, 0).Return([]models.Earning{}, nil)

	_, err := svc.ListEarnings(context.Background(), freelancerID, -5, -10)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLedgerService_GetBalance(t *testing.T) {
	repo := new(mockEarningRepo)
	svc := NewLedgerService(repo)
	freelancerID := uuid.New()

	repo.On("GetBalance", mock.Anything, freelancerID).Return(&models.Balance{
		FreelancerID: freelancerID,
		Available:    950,
		TotalEarned:  1000,
		TotalHeld:    0,
	}, nil)

	balance, err := svc.GetBalance(context.Background(), freelancerID)

	assert.NoError(t, err)
	assert.Equal(t, 950.0, balance.Available)
	assert.Equal(t, freelancerID, balance.FreelancerID)
}
