package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/worklance/worklance-backend/internal/models"
)

func TestMilestoneRepository_Approve_ConcurrentLastMilestonesCompleteJob(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	repo := NewMilestoneRepository(conn)
	jobs := NewJobRepository(conn)

	_, _, job := seedActiveTrade(t, conn, 2000)

	err := repo.Plan(ctx, job.ID, []models.Milestone{
		{Title: "Первый этап", Amount: 1000, SortOrder: 1, AutoReleaseEnabled: true},
		{Title: "Второй этап", Amount: 1000, SortOrder: 2, AutoReleaseEnabled: true},
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	planned, err := repo.ListByJob(ctx, job.ID)
	if err != nil || len(planned) != 2 {
		t.Fatalf("list planned: %v (%d)", err, len(planned))
	}

	// Оба этапа сразу в submitted, чтобы одобрения могли идти параллельно.
	_, err = conn.ExecContext(ctx, `
		UPDATE milestones SET status = 'submitted', submitted_at = NOW(), updated_at = NOW()
		WHERE job_id = $1
	`, job.ID)
	if err != nil {
		t.Fatalf("force submitted: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]*ApproveResult, 2)
	errs := make([]error, 2)
	for i, m := range planned {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			results[i], errs[i] = repo.Approve(ctx, ApproveParams{
				MilestoneID: id,
				Extension:   models.NoExtension(),
			})
		}(i, m.ID)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])

	// Одобрение последнего этапа обязано увидеть первое и завершить заказ.
	completions := 0
	for _, r := range results {
		if r != nil && r.JobCompleted {
			completions++
		}
	}
	assert.Equal(t, 1, completions)

	updated, err := jobs.GetByID(ctx, job.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, updated.Status)

	var tradeStatus string
	err = conn.GetContext(ctx, &tradeStatus, `SELECT status FROM trades WHERE job_id = $1`, job.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.TradeStatusCompleted, tradeStatus)
}

func TestMilestoneRepository_ListAutoReleasable_PredicateIdempotent(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	repo := NewMilestoneRepository(conn)

	_, _, job := seedActiveTrade(t, conn, 700)
	err := repo.Plan(ctx, job.ID, []models.Milestone{
		{Title: "Единственный этап", Amount: 700, SortOrder: 1, AutoReleaseEnabled: true},
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	planned, err := repo.ListByJob(ctx, job.ID)
	if err != nil || len(planned) != 1 {
		t.Fatalf("list planned: %v", err)
	}
	milestoneID := planned[0].ID

	// Сдача три дня назад: грация истекла.
	_, err = conn.ExecContext(ctx, `
		UPDATE milestones SET status = 'submitted', submitted_at = NOW() - INTERVAL '80 hours', updated_at = NOW()
		WHERE id = $1
	`, milestoneID)
	if err != nil {
		t.Fatalf("force submitted: %v", err)
	}

	cutoff := time.Now().Add(-72 * time.Hour)
	candidates, err := repo.ListAutoReleasable(ctx, cutoff)
	assert.NoError(t, err)
	if assert.Len(t, candidates, 1) {
		assert.Equal(t, milestoneID, candidates[0].ID)
	}

	released := time.Now()
	_, err = repo.Approve(ctx, ApproveParams{
		MilestoneID: milestoneID,
		Extension:   models.AutoReleasedExtension(released, nil),
	})
	assert.NoError(t, err)

	// Повторный проход по тому же предикату уже ничего не находит.
	candidates, err = repo.ListAutoReleasable(ctx, cutoff)
	assert.NoError(t, err)
	assert.Empty(t, candidates)

	// И повторное одобрение того же этапа — конфликт состояния, не дубль начислений.
	_, err = repo.Approve(ctx, ApproveParams{
		MilestoneID: milestoneID,
		Extension:   models.AutoReleasedExtension(time.Now(), nil),
	})
	assert.ErrorIs(t, err, ErrMilestoneStateConflict)

	var earningCount int
	err = conn.GetContext(ctx, &earningCount, `SELECT COUNT(*) FROM earnings WHERE milestone_id = $1`, milestoneID)
	assert.NoError(t, err)
	assert.Equal(t, 1, earningCount)
}
