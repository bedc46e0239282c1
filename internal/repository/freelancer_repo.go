package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studioloop/backend/internal/models"
)

type FreelancerRepo struct {
	pool *pgxpool.Pool
}

func NewFreelancerRepo(pool *pgxpool.Pool) *FreelancerRepo {
	return &FreelancerRepo{pool: pool}
}

// selectApproved reads approved profiles with the live count of active tasks.
// Rows are not locked; the snapshot may be stale by the time it is used.
const selectApproved = `
	SELECT u.id, u.name, u.email, COALESCE(u.timezone, 'UTC'),
		fp.experience_level, fp.rating, fp.completed_tasks, fp.acceptance_rate, fp.on_time_rate,
		fp.max_concurrent_tasks, fp.working_hours_start, fp.working_hours_end,
		fp.accepts_urgent_tasks, fp.vacation_mode, fp.skills, fp.specializations, fp.preferred_categories,
		(SELECT count(*) FROM tasks t WHERE t.freelancer_id = u.id AND t.status = ANY($1)) AS active_tasks
	FROM freelancer_profiles fp
	INNER JOIN users u ON u.id = fp.user_id
	WHERE fp.status = 'APPROVED'`

func scanFreelancer(row pgx.Row) (*models.Freelancer, error) {
	var f models.Freelancer
	err := row.Scan(&f.UserID, &f.Name, &f.Email, &f.Timezone,
		&f.ExperienceLevel, &f.Rating, &f.CompletedTasks, &f.AcceptanceRate, &f.OnTimeRate,
		&f.MaxConcurrentTasks, &f.WorkingHoursStart, &f.WorkingHoursEnd,
		&f.AcceptsUrgentTasks, &f.VacationMode, &f.Skills, &f.Specializations, &f.PreferredCategories,
		&f.ActiveTasks)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListApproved returns every APPROVED freelancer ordered by user id.
func (r *FreelancerRepo) ListApproved(ctx context.Context) ([]*models.Freelancer, error) {
	rows, err := r.pool.Query(ctx, selectApproved+` ORDER BY u.id`, models.ActiveTaskStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Freelancer
	for rows.Next() {
		f, err := scanFreelancer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// FindAnyApproved returns the least loaded APPROVED freelancer ignoring every
// availability constraint, or (nil, nil) when there is none.
func (r *FreelancerRepo) FindAnyApproved(ctx context.Context) (*models.Freelancer, error) {
	f, err := scanFreelancer(r.pool.QueryRow(ctx, selectApproved+` ORDER BY active_tasks ASC, u.id LIMIT 1`, models.ActiveTaskStatuses))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return f, err
}
