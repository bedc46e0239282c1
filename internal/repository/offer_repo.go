package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studioloop/backend/internal/models"
)

type OfferRepo struct {
	pool *pgxpool.Pool
}

func NewOfferRepo(pool *pgxpool.Pool) *OfferRepo {
	return &OfferRepo{pool: pool}
}

func (r *OfferRepo) CreateTx(ctx context.Context, tx pgx.Tx, o *models.TaskOffer) error {
	return tx.QueryRow(ctx, `
		INSERT INTO task_offers (id, task_id, artist_id, match_score, score_breakdown, escalation_level, expires_at, response, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, o.ID, o.TaskID, o.ArtistID, o.MatchScore, nullJSON(o.ScoreBreakdown), o.EscalationLevel, o.ExpiresAt, o.Response, o.RespondedAt).Scan(&o.CreatedAt)
}

func (r *OfferRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.TaskOffer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, artist_id, match_score, score_breakdown, escalation_level, expires_at, response, responded_at, created_at
		FROM task_offers WHERE task_id = $1 ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.TaskOffer
	for rows.Next() {
		var o models.TaskOffer
		if err := rows.Scan(&o.ID, &o.TaskID, &o.ArtistID, &o.MatchScore, &o.ScoreBreakdown, &o.EscalationLevel, &o.ExpiresAt, &o.Response, &o.RespondedAt, &o.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}
