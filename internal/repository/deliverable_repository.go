package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/worklance/worklance-backend/internal/models"
	"github.com/worklance/worklance-backend/internal/repository/common"
)

// ErrDeliverableNotFound сигнализирует об отсутствии файла сдачи.
var ErrDeliverableNotFound = errors.New("deliverable not found")

// DeliverableRepository работает с таблицей deliverables.
type DeliverableRepository struct {
	db *sqlx.DB
}

// NewDeliverableRepository создаёт экземпляр.
func NewDeliverableRepository(db *sqlx.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

// Create сохраняет запись о файле.
func (r *DeliverableRepository) Create(ctx context.Context, d *models.Deliverable) error {
	query := `
		INSERT INTO deliverables (user_id, file_path, file_type, file_size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		d.UserID, d.FilePath, d.FileType, d.FileSize,
	).Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("deliverable repository: create %w", err)
	}

	return nil
}

// GetByID возвращает запись о файле.
func (r *DeliverableRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deliverable, error) {
	return common.GetByID[models.Deliverable](ctx, r.db, "deliverables", id, ErrDeliverableNotFound)
}
