package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/services"
)

// NotifyFreelancerArgs asks a worker to tell a freelancer about a new assignment.
type NotifyFreelancerArgs struct {
	TaskID          uuid.UUID      `json:"task_id"`
	TaskTitle       string         `json:"task_title"`
	FreelancerID    uuid.UUID      `json:"freelancer_id"`
	FreelancerName  string         `json:"freelancer_name"`
	FreelancerEmail string         `json:"freelancer_email"`
	MatchScore      float64        `json:"match_score"`
	IsFallback      bool           `json:"is_fallback"`
	Urgency         models.Urgency `json:"urgency"`
}

func (NotifyFreelancerArgs) Kind() string { return "notify_freelancer" }

// NotifyAdminsArgs asks a worker to tell the admins about a new task and how it was assigned.
type NotifyAdminsArgs struct {
	TaskID       uuid.UUID      `json:"task_id"`
	TaskTitle    string         `json:"task_title"`
	ClientID     uuid.UUID      `json:"client_id"`
	FreelancerID *uuid.UUID     `json:"freelancer_id,omitempty"`
	MatchScore   float64        `json:"match_score"`
	IsFallback   bool           `json:"is_fallback"`
	Urgency      models.Urgency `json:"urgency"`
}

func (NotifyAdminsArgs) Kind() string { return "notify_admins" }

// InsertTxFunc enqueues a job within the given transaction. Provided by main using river.Client.InsertTx.
type InsertTxFunc func(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) error

// Outbox turns an assignment notice into River jobs written in the task's transaction.
type Outbox struct {
	insert      InsertTxFunc
	maxAttempts int
}

// NewOutbox returns an Outbox. maxAttempts bounds River's retries per job.
func NewOutbox(insert InsertTxFunc, maxAttempts int) *Outbox {
	return &Outbox{insert: insert, maxAttempts: maxAttempts}
}

// EnqueueTx inserts the freelancer job (when someone was assigned) and the admin job.
func (o *Outbox) EnqueueTx(ctx context.Context, tx pgx.Tx, n services.AssignmentNotice) error {
	opts := &river.InsertOpts{MaxAttempts: o.maxAttempts}

	if n.FreelancerID != nil {
		if err := o.insert(ctx, tx, NotifyFreelancerArgs{
			TaskID:          n.TaskID,
			TaskTitle:       n.TaskTitle,
			FreelancerID:    *n.FreelancerID,
			FreelancerName:  n.FreelancerName,
			FreelancerEmail: n.FreelancerEmail,
			MatchScore:      n.MatchScore,
			IsFallback:      n.IsFallback,
			Urgency:         n.Urgency,
		}, opts); err != nil {
			return fmt.Errorf("insert %s job: %w", NotifyFreelancerArgs{}.Kind(), err)
		}
	}

	if err := o.insert(ctx, tx, NotifyAdminsArgs{
		TaskID:       n.TaskID,
		TaskTitle:    n.TaskTitle,
		ClientID:     n.ClientID,
		FreelancerID: n.FreelancerID,
		MatchScore:   n.MatchScore,
		IsFallback:   n.IsFallback,
		Urgency:      n.Urgency,
	}, opts); err != nil {
		return fmt.Errorf("insert %s job: %w", NotifyAdminsArgs{}.Kind(), err)
	}
	return nil
}
