package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/worklance/worklance-backend/internal/escrow"
	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/pkg/apperror"
	"github.com/worklance/worklance-backend/internal/repository"
)

type mockMilestoneRepo struct {
	mock.Mock
}

func (m *mockMilestoneRepo) Plan(ctx context.Context, jobID uuid.UUID, milestones []models.Milestone) error {
	args := m.Called(ctx, jobID, milestones)
	return args.Error(0)
}

func (m *mockMilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) Start(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) Submit(ctx context.Context, id uuid.UUID, submissionURL string, deliverableID *uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id, submissionURL, deliverableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) Dispute(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) Approve(ctx context.Context, p repository.ApproveParams) (*repository.ApproveResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ApproveResult), args.Error(1)
}

func milestoneTestFixture() (clientID, freelancerID, jobID uuid.UUID, job *models.JobPosting) {
	clientID = uuid.New()
	freelancerID = uuid.New()
	jobID = uuid.New()
	job = &models.JobPosting{
		ID:           jobID,
		ClientID:     clientID,
		FreelancerID: &freelancerID,
		Status:       models.JobStatusInProgress,
	}
	return clientID, freelancerID, jobID, job
}

func TestMilestoneService_Plan_SumMismatch(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	trades := new(mockTradeRepo)
	svc := NewMilestoneService(repo, jobs, trades, nil, nil)
	ctx := context.Background()
	clientID, _, jobID, job := milestoneTestFixture()

	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	repo.On("ListByJob", ctx, jobID).Return([]models.Milestone{}, nil)
	trades.On("GetByJobID", ctx, jobID).Return(&models.Trade{JobID: jobID, Amount: 3000}, nil)

	_, err := svc.PlanMilestones(ctx, jobID, clientID, []MilestonePlanItem{
		{Title: "Дизайн", Amount: 1000},
		{Title: "Разработка", Amount: 1500},
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Plan")
}

func TestMilestoneService_Plan_AlreadyPlanned(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	svc := NewMilestoneService(repo, jobs, new(mockTradeRepo), nil, nil)
	ctx := context.Background()
	clientID, _, jobID, job := milestoneTestFixture()

	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	repo.On("ListByJob", ctx, jobID).Return([]models.Milestone{{ID: uuid.New()}}, nil)

	_, err := svc.PlanMilestones(ctx, jobID, clientID, []MilestonePlanItem{
		{Title: "Дизайн", Amount: 1000},
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "Plan")
}

func TestMilestoneService_Plan_Success(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	trades := new(mockTradeRepo)
	svc := NewMilestoneService(repo, jobs, trades, nil, nil)
	ctx := context.Background()
	clientID, _, jobID, job := milestoneTestFixture()

	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	repo.On("ListByJob", ctx, jobID).Return([]models.Milestone{}, nil).Once()
	trades.On("GetByJobID", ctx, jobID).Return(&models.Trade{JobID: jobID, Amount: 2500}, nil)
	repo.On("Plan", ctx, jobID, mock.MatchedBy(func(ms []models.Milestone) bool {
		return len(ms) == 2 && ms[0].SortOrder == 1 && ms[1].SortOrder == 2
	})).Return(nil)
	repo.On("ListByJob", ctx, jobID).Return([]models.Milestone{
		{JobID: jobID, Title: "Дизайн", SortOrder: 1},
		{JobID: jobID, Title: "Разработка", SortOrder: 2},
	}, nil)

	created, err := svc.PlanMilestones(ctx, jobID, clientID, []MilestonePlanItem{
		{Title: "Дизайн", Amount: 1000},
		{Title: "Разработка", Amount: 1500},
	})
	assert.NoError(t, err)
	assert.Len(t, created, 2)
	repo.AssertExpectations(t)
}

func TestMilestoneService_Start_DepositNotConfirmed(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	trades := new(mockTradeRepo)
	svc := NewMilestoneService(repo, jobs, trades, nil, nil)
	ctx := context.Background()
	_, freelancerID, jobID, job := milestoneTestFixture()
	milestoneID := uuid.New()

	repo.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:     milestoneID,
		JobID:  jobID,
		Status: models.MilestoneStatusPending,
	}, nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	trades.On("GetByJobID", ctx, jobID).Return(&models.Trade{
		JobID:  jobID,
		Status: models.TradeStatusPendingDeposit,
	}, nil)

	_, err := svc.StartMilestone(ctx, milestoneID, freelancerID)
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "Start")
}

func TestMilestoneService_Submit_RequiresResult(t *testing.T) {
	svc := NewMilestoneService(new(mockMilestoneRepo), new(mockJobRepo), new(mockTradeRepo), nil, nil)

	_, err := svc.SubmitMilestone(context.Background(), SubmitInput{
		MilestoneID:  uuid.New(),
		FreelancerID: uuid.New(),
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestMilestoneService_Approve_Forbidden(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	svc := NewMilestoneService(repo, jobs, new(mockTradeRepo), nil, nil)
	ctx := context.Background()
	_, _, jobID, job := milestoneTestFixture()
	milestoneID := uuid.New()

	repo.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:     milestoneID,
		JobID:  jobID,
		Status: models.MilestoneStatusSubmitted,
	}, nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := svc.ApproveMilestone(ctx, ApproveInput{
		MilestoneID: milestoneID,
		Actor:       models.UserActor(uuid.New()),
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	repo.AssertNotCalled(t, "Approve")
}

func TestMilestoneService_Approve_NegativeTip(t *testing.T) {
	svc := NewMilestoneService(new(mockMilestoneRepo), new(mockJobRepo), new(mockTradeRepo), nil, nil)

	_, err := svc.ApproveMilestone(context.Background(), ApproveInput{
		MilestoneID: uuid.New(),
		Actor:       models.UserActor(uuid.New()),
		TipAmount:   -50,
	})
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestMilestoneService_Approve_ByClient(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	trades := new(mockTradeRepo)
	svc := NewMilestoneService(repo, jobs, trades, nil, nil)
	ctx := context.Background()
	clientID, freelancerID, jobID, job := milestoneTestFixture()
	milestoneID := uuid.New()

	repo.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:     milestoneID,
		JobID:  jobID,
		Amount: 1000,
		Status: models.MilestoneStatusSubmitted,
	}, nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	// Адаптер не задан, депозита нет: расширение остаётся пустым.
	trades.On("GetByJobID", ctx, jobID).Return(&models.Trade{JobID: jobID}, nil).Maybe()
	repo.On("Approve", ctx, mock.MatchedBy(func(p repository.ApproveParams) bool {
		return p.MilestoneID == milestoneID && p.TipAmount == 100 && p.Extension.Kind == models.ExtensionNone
	})).Return(&repository.ApproveResult{
		Milestone: &models.Milestone{ID: milestoneID, JobID: jobID, Amount: 1000, Status: models.MilestoneStatusApproved},
		Earnings: []models.Earning{
			{FreelancerID: freelancerID, Amount: 1000, Type: models.EarningTypeMilestone},
			{FreelancerID: freelancerID, Amount: 100, Type: models.EarningTypeTip},
		},
		ClientID:     clientID,
		FreelancerID: freelancerID,
	}, nil)

	result, err := svc.ApproveMilestone(ctx, ApproveInput{
		MilestoneID: milestoneID,
		Actor:       models.UserActor(clientID),
		TipAmount:   100,
	})
	assert.NoError(t, err)
	assert.Len(t, result.Earnings, 2)
	assert.Equal(t, models.MilestoneStatusApproved, result.Milestone.Status)
	repo.AssertExpectations(t)
}

func TestMilestoneService_Approve_SystemActorSkipsOwnershipCheck(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	svc := NewMilestoneService(repo, jobs, new(mockTradeRepo), nil, nil)
	ctx := context.Background()
	clientID, freelancerID, jobID, job := milestoneTestFixture()
	milestoneID := uuid.New()

	repo.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:     milestoneID,
		JobID:  jobID,
		Amount: 500,
		Status: models.MilestoneStatusSubmitted,
	}, nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)

	releasedAt := time.Now()
	extension := models.AutoReleasedExtension(releasedAt, nil)
	repo.On("Approve", ctx, mock.MatchedBy(func(p repository.ApproveParams) bool {
		return p.Extension.IsAutoReleased()
	})).Return(&repository.ApproveResult{
		Milestone:    &models.Milestone{ID: milestoneID, JobID: jobID, Amount: 500, Status: models.MilestoneStatusApproved, Extension: extension},
		Earnings:     []models.Earning{{FreelancerID: freelancerID, Amount: 500, Type: models.EarningTypeMilestone}},
		ClientID:     clientID,
		FreelancerID: freelancerID,
	}, nil)

	result, err := svc.ApproveMilestone(ctx, ApproveInput{
		MilestoneID:    milestoneID,
		Actor:          models.SystemActor(),
		AutoReleasedAt: &releasedAt,
	})
	assert.NoError(t, err)
	assert.True(t, result.Milestone.Extension.IsAutoReleased())
	repo.AssertExpectations(t)
}

func TestMilestoneService_Approve_AutoReleaseCarriesDescriptor(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	trades := new(mockTradeRepo)
	adapter := escrow.NewStaticAdapter("0xAbCdEf", "release")
	svc := NewMilestoneService(repo, jobs, trades, adapter, nil)
	ctx := context.Background()
	clientID, freelancerID, jobID, job := milestoneTestFixture()
	milestoneID := uuid.New()
	escrowID := "esc_42"

	repo.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:     milestoneID,
		JobID:  jobID,
		Amount: 800,
		Status: models.MilestoneStatusSubmitted,
	}, nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	trades.On("GetByJobID", ctx, jobID).Return(&models.Trade{
		JobID:    jobID,
		Amount:   800,
		EscrowID: &escrowID,
		Status:   models.TradeStatusActive,
	}, nil)

	releasedAt := time.Now()
	repo.On("Approve", ctx, mock.MatchedBy(func(p repository.ApproveParams) bool {
		return p.Extension.IsAutoReleased() &&
			p.Extension.PendingRelease != nil &&
			p.Extension.PendingRelease.ContractAddress == "0xAbCdEf" &&
			len(p.Extension.PendingRelease.Arguments) == 1 &&
			p.Extension.PendingRelease.Arguments[0] == escrowID
	})).Return(&repository.ApproveResult{
		Milestone:    &models.Milestone{ID: milestoneID, JobID: jobID, Amount: 800, Status: models.MilestoneStatusApproved},
		Earnings:     []models.Earning{{FreelancerID: freelancerID, Amount: 800, Type: models.EarningTypeMilestone}},
		ClientID:     clientID,
		FreelancerID: freelancerID,
	}, nil)

	_, err := svc.ApproveMilestone(ctx, ApproveInput{
		MilestoneID:    milestoneID,
		Actor:          models.SystemActor(),
		AutoReleasedAt: &releasedAt,
	})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestMilestoneService_Dispute_ByStranger(t *testing.T) {
	repo := new(mockMilestoneRepo)
	jobs := new(mockJobRepo)
	svc := NewMilestoneService(repo, jobs, new(mockTradeRepo), nil, nil)
	ctx := context.Background()
	_, _, jobID, job := milestoneTestFixture()
	milestoneID := uuid.New()

	repo.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:     milestoneID,
		JobID:  jobID,
		Status: models.MilestoneStatusSubmitted,
	}, nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := svc.DisputeMilestone(ctx, milestoneID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	repo.AssertNotCalled(t, "Dispute")
}
