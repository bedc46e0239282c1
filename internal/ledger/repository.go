package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studioloop/backend/internal/models"
)

// Repository stores credit_transactions. Rows are append-only; the running
// balance lives on users.credits and is copied into balance_after.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTx runs inside the caller's transaction, after the balance change it records.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO credit_transactions (id, user_id, task_id, type, amount, balance_after, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, c.ID, c.UserID, c.TaskID, c.Type, c.Amount, c.BalanceAfter, c.Description).Scan(&c.CreatedAt)
}

// ListByUser returns a user's transactions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CreditTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, task_id, type, amount, balance_after, COALESCE(description, ''), created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.CreditTransaction{}
	for rows.Next() {
		var c models.CreditTransaction
		if err := rows.Scan(&c.ID, &c.UserID, &c.TaskID, &c.Type, &c.Amount, &c.BalanceAfter, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
