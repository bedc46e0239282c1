package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studioloop/backend/internal/models"
)

// ActivityRepo is append-only.
type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) CreateTx(ctx context.Context, tx pgx.Tx, a *models.ActivityLog) error {
	return tx.QueryRow(ctx, `
		INSERT INTO activity_logs (id, task_id, actor_id, action, previous_status, new_status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, a.ID, a.TaskID, a.ActorID, a.Action, a.PreviousStatus, a.NewStatus, nullJSON(a.Metadata)).Scan(&a.CreatedAt)
}

func (r *ActivityRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.ActivityLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, actor_id, action, previous_status, new_status, metadata, created_at
		FROM activity_logs WHERE task_id = $1 ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ActivityLog
	for rows.Next() {
		var a models.ActivityLog
		if err := rows.Scan(&a.ID, &a.TaskID, &a.ActorID, &a.Action, &a.PreviousStatus, &a.NewStatus, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
