package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/worklance/worklance-backend/internal/models"
)

func TestJobRepository_AcceptBid_SingleWinner(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	repo := NewJobRepository(conn)

	clientID := seedTestUser(t, conn, models.RoleClient)
	job := seedOpenJob(t, conn, clientID)

	var bids []*models.Bid
	for i := 0; i < 3; i++ {
		freelancerID := seedTestUser(t, conn, models.RoleFreelancer)
		bids = append(bids, seedBid(t, conn, job.ID, freelancerID, 1000+float64(i)*100))
	}

	result, err := repo.AcceptBid(ctx, job.ID, bids[1].ID, 1)
	if err != nil {
		t.Fatalf("accept bid: %v", err)
	}
	assert.Equal(t, models.BidStatusAccepted, result.Bid.Status)
	assert.Len(t, result.RejectedBids, 2)
	assert.Equal(t, models.TradeStatusPendingDeposit, result.Trade.Status)
	assert.Equal(t, bids[1].Amount, result.Trade.Amount)

	updated, err := repo.GetByID(ctx, job.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, updated.Status)
	if assert.NotNil(t, updated.FreelancerID) {
		assert.Equal(t, bids[1].FreelancerID, *updated.FreelancerID)
	}

	// Ровно один победитель: повторное принятие другой ставки — конфликт,
	// состояние ставок при этом не меняется.
	_, err = repo.AcceptBid(ctx, job.ID, bids[0].ID, 1)
	assert.ErrorIs(t, err, ErrJobNotOpen)

	var counts []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err = conn.SelectContext(ctx, &counts,
		`SELECT status, COUNT(*) AS count FROM bids WHERE job_id = $1 GROUP BY status`, job.ID)
	assert.NoError(t, err)
	byStatus := map[string]int{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	assert.Equal(t, 1, byStatus[models.BidStatusAccepted])
	assert.Equal(t, 2, byStatus[models.BidStatusRejected])
}

func TestJobRepository_CreateBid_CounterAndUniqueness(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	repo := NewJobRepository(conn)

	clientID := seedTestUser(t, conn, models.RoleClient)
	freelancerID := seedTestUser(t, conn, models.RoleFreelancer)
	job := seedOpenJob(t, conn, clientID)

	seedBid(t, conn, job.ID, freelancerID, 500)

	updated, err := repo.GetByID(ctx, job.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentBidCount)

	// Вторая ставка того же фрилансера упирается в уникальный индекс.
	err = repo.CreateBid(ctx, &models.Bid{
		JobID:        job.ID,
		FreelancerID: freelancerID,
		Amount:       600,
		DeliveryDays: 7,
	})
	assert.ErrorIs(t, err, ErrBidAlreadyExists)

	updated, err = repo.GetByID(ctx, job.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentBidCount)
}
