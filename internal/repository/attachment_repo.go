package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studioloop/backend/internal/models"
)

type AttachmentRepo struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepo(pool *pgxpool.Pool) *AttachmentRepo {
	return &AttachmentRepo{pool: pool}
}

// AttachFilesTx records already-uploaded files against a task in one batch.
func (r *AttachmentRepo) AttachFilesTx(ctx context.Context, tx pgx.Tx, taskID, uploaderID uuid.UUID, files []models.TaskAttachment) error {
	batch := &pgx.Batch{}
	for _, f := range files {
		batch.Queue(`
			INSERT INTO task_files (id, task_id, uploaded_by, file_name, file_url, file_type, file_size)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New(), taskID, uploaderID, f.FileName, f.FileURL, f.FileType, f.FileSize)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// LinkBriefTx points a client's brief at the new task. A brief owned by someone
// else, or already linked, is left untouched and reported as pgx.ErrNoRows.
func (r *AttachmentRepo) LinkBriefTx(ctx context.Context, tx pgx.Tx, briefID, taskID, clientID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE briefs SET task_id = $2, updated_at = now()
		WHERE id = $1 AND client_id = $3 AND task_id IS NULL
	`, briefID, taskID, clientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
