package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/worklance/worklance-backend/internal/db"
	"github.com/worklance/worklance-backend/internal/models"
)

var (
	testDBOnce sync.Once
	testDB     *sqlx.DB
	testDBErr  error
)

// setupTestDB подключается к базе из DATABASE_URL либо поднимает контейнер
// postgres:16 и накатывает миграции. Контейнер один на пакет, его убирает
// reaper testcontainers по завершении процесса.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("интеграционный тест пропущен в -short режиме")
	}

	testDBOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			pgC, err := postgres.Run(ctx, "postgres:16",
				postgres.WithDatabase("worklance_test"),
				postgres.WithUsername("worklance"),
				postgres.WithPassword("worklance"),
				postgres.BasicWaitStrategies(),
			)
			if err != nil {
				testDBErr = fmt.Errorf("postgres container: %w", err)
				return
			}
			dsn, err = pgC.ConnectionString(ctx, "sslmode=disable")
			if err != nil {
				testDBErr = fmt.Errorf("connection string: %w", err)
				return
			}
		}

		conn, err := db.NewPostgres(ctx, dsn)
		if err != nil {
			testDBErr = fmt.Errorf("connect: %w", err)
			return
		}
		if err := db.RunMigrations(ctx, conn, "../../migrations"); err != nil {
			testDBErr = fmt.Errorf("migrations: %w", err)
			return
		}
		testDB = conn
	})
	if testDBErr != nil {
		t.Skipf("база для интеграционных тестов недоступна: %v", testDBErr)
	}
	return testDB
}

func seedTestUser(t *testing.T, conn *sqlx.DB, role string) uuid.UUID {
	t.Helper()
	repo := NewUserRepository(conn)
	suffix := time.Now().UnixNano()
	u := &models.User{
		Email:        fmt.Sprintf("%s_%d_%s@example.com", role, suffix, uuid.NewString()[:8]),
		Username:     fmt.Sprintf("%s_%d", role, suffix),
		PasswordHash: "test-hash",
		Role:         role,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func seedOpenJob(t *testing.T, conn *sqlx.DB, clientID uuid.UUID) *models.JobPosting {
	t.Helper()
	repo := NewJobRepository(conn)
	job := &models.JobPosting{
		ClientID:    clientID,
		Title:       "Интеграционный заказ",
		Description: "Заказ для проверки поведения репозиториев на живой базе",
		Currency:    "USDT",
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func seedBid(t *testing.T, conn *sqlx.DB, jobID, freelancerID uuid.UUID, amount float64) *models.Bid {
	t.Helper()
	repo := NewJobRepository(conn)
	bid := &models.Bid{
		JobID:        jobID,
		FreelancerID: freelancerID,
		Amount:       amount,
		DeliveryDays: 14,
	}
	if err := repo.CreateBid(context.Background(), bid); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	return bid
}

// seedActiveTrade проводит заказ через принятие ставки и подтверждение депозита.
func seedActiveTrade(t *testing.T, conn *sqlx.DB, amount float64) (clientID, freelancerID uuid.UUID, job *models.JobPosting) {
	t.Helper()
	ctx := context.Background()
	clientID = seedTestUser(t, conn, models.RoleClient)
	freelancerID = seedTestUser(t, conn, models.RoleFreelancer)
	job = seedOpenJob(t, conn, clientID)
	bid := seedBid(t, conn, job.ID, freelancerID, amount)

	jobs := NewJobRepository(conn)
	if _, err := jobs.AcceptBid(ctx, job.ID, bid.ID, 1); err != nil {
		t.Fatalf("seed accept bid: %v", err)
	}
	trades := NewTradeRepository(conn)
	if _, err := trades.ConfirmDeposit(ctx, job.ID, "esc_"+uuid.NewString()[:8]); err != nil {
		t.Fatalf("seed confirm deposit: %v", err)
	}
	return clientID, freelancerID, job
}
