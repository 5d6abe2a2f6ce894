package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/pkg/apperror"
	"github.com/worklance/worklance-backend/internal/repository"
)

type mockReconcilerRepo struct {
	mock.Mock
}

func (m *mockReconcilerRepo) ListAutoReleasable(ctx context.Context, cutoff time.Time) ([]models.Milestone, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Milestone), args.Error(1)
}

func (m *mockReconcilerRepo) ListOverdue(ctx context.Context, now time.Time) ([]repository.OverdueMilestone, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.OverdueMilestone), args.Error(1)
}

type mockApprover struct {
	mock.Mock
}

func (m *mockApprover) ApproveMilestone(ctx context.Context, in ApproveInput) (*repository.ApproveResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ApproveResult), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, event, title, message string, data interface{}) error {
	args := m.Called(ctx, userID, event, title, message, data)
	return args.Error(0)
}

func TestReconcilerService_Run_AutoReleases(t *testing.T) {
	repo := new(mockReconcilerRepo)
	approver := new(mockApprover)
	svc := NewReconcilerService(repo, approver, nil)
	ctx := context.Background()
	milestoneID := uuid.New()

	repo.On("ListAutoReleasable", ctx, mock.AnythingOfType("time.Time")).Return([]models.Milestone{
		{ID: milestoneID, Status: models.MilestoneStatusSubmitted, AutoReleaseEnabled: true},
	}, nil)
	repo.On("ListOverdue", ctx, mock.AnythingOfType("time.Time")).Return([]repository.OverdueMilestone{}, nil)

	approver.On("ApproveMilestone", ctx, mock.MatchedBy(func(in ApproveInput) bool {
		return in.MilestoneID == milestoneID &&
			in.Actor.IsSystem() &&
			in.AutoReleasedAt != nil
	})).Return(&repository.ApproveResult{
		Milestone: &models.Milestone{ID: milestoneID, Status: models.MilestoneStatusApproved},
	}, nil)

	report, err := svc.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{milestoneID}, report.AutoReleased)
	assert.Empty(t, report.Skipped)
	approver.AssertExpectations(t)
}

func TestReconcilerService_Run_SkipsConflicted(t *testing.T) {
	repo := new(mockReconcilerRepo)
	approver := new(mockApprover)
	svc := NewReconcilerService(repo, approver, nil)
	ctx := context.Background()
	lost := uuid.New()
	won := uuid.New()

	repo.On("ListAutoReleasable", ctx, mock.AnythingOfType("time.Time")).Return([]models.Milestone{
		{ID: lost}, {ID: won},
	}, nil)
	repo.On("ListOverdue", ctx, mock.AnythingOfType("time.Time")).Return([]repository.OverdueMilestone{}, nil)

	// Первый этап успел одобрить клиент: конфликт не прерывает проход.
	approver.On("ApproveMilestone", ctx, mock.MatchedBy(func(in ApproveInput) bool {
		return in.MilestoneID == lost
	})).Return(nil, apperror.New(apperror.ErrCodeConflict, "этап находится в другом статусе"))
	approver.On("ApproveMilestone", ctx, mock.MatchedBy(func(in ApproveInput) bool {
		return in.MilestoneID == won
	})).Return(&repository.ApproveResult{
		Milestone: &models.Milestone{ID: won, Status: models.MilestoneStatusApproved},
	}, nil)

	report, err := svc.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lost}, report.Skipped)
	assert.Equal(t, []uuid.UUID{won}, report.AutoReleased)
}

func TestReconcilerService_Run_OverdueNotices(t *testing.T) {
	repo := new(mockReconcilerRepo)
	approver := new(mockApprover)
	notifier := new(mockNotifier)
	svc := NewReconcilerService(repo, approver, notifier)
	ctx := context.Background()
	clientID := uuid.New()
	freelancerID := uuid.New()
	due := time.Now().Add(-24 * time.Hour)

	repo.On("ListAutoReleasable", ctx, mock.AnythingOfType("time.Time")).Return([]models.Milestone{}, nil)
	repo.On("ListOverdue", ctx, mock.AnythingOfType("time.Time")).Return([]repository.OverdueMilestone{
		{
			Milestone:    models.Milestone{ID: uuid.New(), JobID: uuid.New(), DueDate: &due, Status: models.MilestoneStatusInProgress},
			ClientID:     clientID,
			FreelancerID: &freelancerID,
		},
	}, nil)

	notifier.On("Notify", ctx, clientID, models.EventMilestoneOverdue, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", ctx, freelancerID, models.EventMilestoneOverdue, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	report, err := svc.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.OverdueNotice)
	assert.Empty(t, report.AutoReleased)
	notifier.AssertExpectations(t)
}

func TestReconcilerService_Run_CutoffHonorsGrace(t *testing.T) {
	repo := new(mockReconcilerRepo)
	approver := new(mockApprover)
	svc := NewReconcilerService(repo, approver, nil)
	ctx := context.Background()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	repo.On("ListAutoReleasable", ctx, fixed.Add(-AutoReleaseGracePeriod)).Return([]models.Milestone{}, nil)
	repo.On("ListOverdue", ctx, fixed).Return([]repository.OverdueMilestone{}, nil)

	report, err := svc.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, fixed, report.StartedAt)
	repo.AssertExpectations(t)
}
