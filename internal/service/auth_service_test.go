package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/pkg/apperror"
	"github.com/worklance/worklance-backend/internal/repository"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 720*time.Hour)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dev@example.com",
		Password: "1234567",
	}, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create")
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	svc := NewAuthService(new(mockAuthRepo), newTestTokenManager())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dev@example.com",
		Password: "password123",
		Role:     "admin",
	}, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "dev@example.com").Return(&models.User{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "dev@example.com",
		Password: "password123",
	}, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "dev@example.com").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = uuid.New()
	}).Return(nil)
	repo.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "dev@example.com",
		Password: "password123",
	}, map[string]string{"ip": "127.0.0.1"})
	assert.NoError(t, err)
	assert.Equal(t, "dev", result.User.Username)
	assert.Equal(t, models.RoleFreelancer, result.User.Role)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	repo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, "dev@example.com").Return(&models.User{
		ID:           uuid.New(),
		Email:        "dev@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}, nil)

	_, err := svc.Login(ctx, LoginInput{
		Email:    "dev@example.com",
		Password: "wrong-password",
	}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "dev@example.com").Return(&models.User{
		ID:       uuid.New(),
		IsActive: false,
	}, nil)

	_, err := svc.Login(ctx, LoginInput{
		Email:    "dev@example.com",
		Password: "password123",
	}, nil)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	svc := NewAuthService(new(mockAuthRepo), newTestTokenManager())

	_, err := svc.Refresh(context.Background(), "not-a-jwt", nil)
	assert.Error(t, err)
}
