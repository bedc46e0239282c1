package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studioloop/backend/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

var taskColumns = []string{
	"id", "client_id", "freelancer_id", "category_id", "title", "description", "status",
	"complexity", "urgency", "requirements", "style_references", "moodboard_items", "chat_history",
	"estimated_hours", "credits_required", "deadline", "assigned_at", "created_at", "updated_at",
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ClientID, &t.FreelancerID, &t.CategoryID, &t.Title, &t.Description, &t.Status,
		&t.Complexity, &t.Urgency, &t.Requirements, &t.StyleReferences, &t.MoodboardItems, &t.ChatHistory,
		&t.EstimatedHours, &t.CreditsRequired, &t.Deadline, &t.AssignedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTx inserts a task inside the caller's transaction.
func (r *TaskRepo) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	return tx.QueryRow(ctx, `
		INSERT INTO tasks (id, client_id, freelancer_id, category_id, title, description, status, complexity, urgency,
			requirements, style_references, moodboard_items, chat_history, estimated_hours, credits_required, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`, t.ID, t.ClientID, t.FreelancerID, t.CategoryID, t.Title, t.Description, t.Status, t.Complexity, t.Urgency,
		nullJSON(t.Requirements), nullJSON(t.StyleReferences), nullJSON(t.MoodboardItems), nullJSON(t.ChatHistory),
		t.EstimatedHours, t.CreditsRequired, t.Deadline).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// MarkAssignedTx moves a PENDING task to ASSIGNED.
func (r *TaskRepo) MarkAssignedTx(ctx context.Context, tx pgx.Tx, taskID, freelancerID uuid.UUID, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $2, freelancer_id = $3, assigned_at = $4, updated_at = now()
		WHERE id = $1 AND status = $5
	`, taskID, models.TaskStatusAssigned, freelancerID, at, models.TaskStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	q, args, err := psql.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanTask(r.pool.QueryRow(ctx, q, args...))
}

// TaskFilter narrows a task listing.
type TaskFilter struct {
	Status string
	Limit  uint64
	Offset uint64
}

func taskListQuery(v TaskView, f TaskFilter) sq.SelectBuilder {
	b := applyView(psql.Select(taskColumns...).From("tasks"), v)
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	b = b.OrderBy("created_at DESC")
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}
	if f.Offset > 0 {
		b = b.Offset(f.Offset)
	}
	return b
}

func taskStatsQuery(v TaskView) sq.SelectBuilder {
	b := psql.Select().
		Column(sq.Expr("count(*) FILTER (WHERE status = ANY(?))", models.ActiveTaskStatuses)).
		Column(sq.Expr("count(*) FILTER (WHERE status = ?)", models.TaskStatusCompleted)).
		Column("COALESCE(sum(credits_required), 0)").
		From("tasks")
	return applyView(b, v)
}

// List returns the tasks visible in v, newest first.
func (r *TaskRepo) List(ctx context.Context, v TaskView, f TaskFilter) ([]*models.Task, error) {
	q, args, err := taskListQuery(v, f).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Stats aggregates every task visible in v, ignoring list filters.
func (r *TaskRepo) Stats(ctx context.Context, v TaskView) (*models.TaskStats, error) {
	q, args, err := taskStatsQuery(v).ToSql()
	if err != nil {
		return nil, err
	}
	var s models.TaskStats
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&s.ActiveTasks, &s.CompletedTasks, &s.TotalCreditsUsed); err != nil {
		return nil, err
	}
	return &s, nil
}

// nullJSON stores empty payloads as SQL NULL rather than an invalid empty jsonb.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
