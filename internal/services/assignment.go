package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/observability"
)

// TxBeginner starts a database transaction. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TaskWriter persists tasks inside a transaction.
type TaskWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Task) error
	MarkAssignedTx(ctx context.Context, tx pgx.Tx, taskID, freelancerID uuid.UUID, at time.Time) error
}

type OfferWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, o *models.TaskOffer) error
}

type ActivityWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, a *models.ActivityLog) error
}

// AttachmentWriter links uploaded files and an optional brief to a new task.
type AttachmentWriter interface {
	AttachFilesTx(ctx context.Context, tx pgx.Tx, taskID, uploaderID uuid.UUID, files []models.TaskAttachment) error
	LinkBriefTx(ctx context.Context, tx pgx.Tx, briefID, taskID, clientID uuid.UUID) error
}

// CategoryResolver maps a category slug to its id; unknown slugs resolve to nil.
type CategoryResolver interface {
	ResolveSlug(ctx context.Context, slug string) (*uuid.UUID, error)
}

// TaskSelector picks the freelancer for a task, or nil when nobody is available.
type TaskSelector interface {
	Select(ctx context.Context, task *models.TaskDescriptor) (*ArtistScore, error)
}

// AssignmentNotice is the notification intent recorded with a new task.
type AssignmentNotice struct {
	TaskID          uuid.UUID
	TaskTitle       string
	ClientID        uuid.UUID
	FreelancerID    *uuid.UUID
	FreelancerName  string
	FreelancerEmail string
	MatchScore      float64
	IsFallback      bool
	Urgency         models.Urgency
}

// NotificationOutbox enqueues notification intents inside the caller's transaction,
// so they exist only if the task commits.
type NotificationOutbox interface {
	EnqueueTx(ctx context.Context, tx pgx.Tx, n AssignmentNotice) error
}

// CreateTaskInput is a validated task-creation request.
type CreateTaskInput struct {
	ClientID        uuid.UUID
	Title           string
	Description     string
	CategorySlug    string
	Requirements    json.RawMessage
	RequiredSkills  []string
	EstimatedHours  *float64
	CreditsRequired int
	Deadline        *time.Time
	ChatHistory     json.RawMessage
	StyleReferences json.RawMessage
	MoodboardItems  json.RawMessage
	Attachments     []models.TaskAttachment
	BriefID         *uuid.UUID
}

// CreateTaskResult describes the committed task.
type CreateTaskResult struct {
	TaskID           uuid.UUID  `json:"taskId"`
	Status           string     `json:"status"`
	AssignedTo       *uuid.UUID `json:"assignedTo"`
	MatchScore       *float64   `json:"matchScore"`
	IsFallback       bool       `json:"isFallback"`
	CreditsRemaining int        `json:"creditsRemaining"`
}

// Coordinator creates a task and its assignment in one transaction.
type Coordinator struct {
	Pool        TxBeginner
	Credits     *CreditService
	Categories  CategoryResolver
	Selector    TaskSelector
	Tasks       TaskWriter
	Offers      OfferWriter
	Activity    ActivityWriter
	Attachments AttachmentWriter
	Outbox      NotificationOutbox
	Now         func() time.Time
}

func (c *Coordinator) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now()
}

// CreateTask locks the client, checks credits, persists the task, ranks and
// assigns a freelancer, charges credits and enqueues notifications. Any failure
// rolls the whole transaction back.
func (c *Coordinator) CreateTask(ctx context.Context, in CreateTaskInput) (*CreateTaskResult, error) {
	tx, err := c.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	client, err := c.Credits.Reserve(ctx, tx, in.ClientID, in.CreditsRequired)
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			observability.InsufficientCreditsTotal.Inc()
		}
		return nil, err
	}

	var categoryID *uuid.UUID
	if in.CategorySlug != "" {
		categoryID, err = c.Categories.ResolveSlug(ctx, in.CategorySlug)
		if err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
	}

	now := c.now()
	skills := NormalizeSkills(in.RequiredSkills)
	desc := &models.TaskDescriptor{
		ID:             uuid.New(),
		Title:          in.Title,
		Description:    in.Description,
		Complexity:     DetectTaskComplexity(in.EstimatedHours, len(skills), in.Description),
		Urgency:        UrgencyAt(in.Deadline, now),
		RequiredSkills: skills,
		CategorySlug:   in.CategorySlug,
		ClientID:       in.ClientID,
		ClientTimezone: client.Timezone,
		Deadline:       in.Deadline,
		EstimatedHours: in.EstimatedHours,
	}

	task := &models.Task{
		ID:              desc.ID,
		ClientID:        in.ClientID,
		CategoryID:      categoryID,
		Title:           in.Title,
		Description:     in.Description,
		Status:          models.TaskStatusPending,
		Complexity:      desc.Complexity,
		Urgency:         desc.Urgency,
		Requirements:    in.Requirements,
		StyleReferences: in.StyleReferences,
		MoodboardItems:  in.MoodboardItems,
		ChatHistory:     in.ChatHistory,
		EstimatedHours:  in.EstimatedHours,
		CreditsRequired: in.CreditsRequired,
		Deadline:        in.Deadline,
	}
	if err := c.Tasks.CreateTx(ctx, tx, task); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	selected, err := c.Selector.Select(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("select freelancer: %w", err)
	}

	if selected != nil {
		if err := c.assign(ctx, tx, task, selected, now); err != nil {
			return nil, err
		}
	}

	if err := c.logActivity(ctx, tx, task, selected); err != nil {
		return nil, err
	}

	remaining, err := c.Credits.Charge(ctx, tx, in.ClientID, task.ID, in.CreditsRequired, "Task: "+in.Title)
	if err != nil {
		return nil, err
	}

	if len(in.Attachments) > 0 {
		if err := c.Attachments.AttachFilesTx(ctx, tx, task.ID, in.ClientID, in.Attachments); err != nil {
			return nil, fmt.Errorf("attach files: %w", err)
		}
	}
	if in.BriefID != nil {
		err := c.Attachments.LinkBriefTx(ctx, tx, *in.BriefID, task.ID, in.ClientID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBriefNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("link brief: %w", err)
		}
	}

	if err := c.Outbox.EnqueueTx(ctx, tx, notice(task, selected)); err != nil {
		return nil, fmt.Errorf("enqueue notifications: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	res := &CreateTaskResult{
		TaskID:           task.ID,
		Status:           task.Status,
		AssignedTo:       task.FreelancerID,
		CreditsRemaining: remaining,
	}
	outcome := observability.OutcomeUnassigned
	if selected != nil {
		score := selected.TotalScore
		res.MatchScore = &score
		res.IsFallback = selected.IsFallback
		outcome = observability.OutcomeMatched
		if selected.IsFallback {
			outcome = observability.OutcomeFallback
		}
		observability.ObserveAssignment(outcome, score)
	} else {
		observability.ObserveAssignment(outcome, 0)
	}

	slog.Info("task created",
		"task_id", task.ID,
		"client_id", in.ClientID,
		"status", task.Status,
		"complexity", task.Complexity,
		"urgency", task.Urgency,
		"outcome", outcome,
		"credits_remaining", remaining,
	)
	return res, nil
}

func (c *Coordinator) assign(ctx context.Context, tx pgx.Tx, task *models.Task, s *ArtistScore, now time.Time) error {
	freelancerID := s.Freelancer.UserID
	if err := c.Tasks.MarkAssignedTx(ctx, tx, task.ID, freelancerID, now); err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	task.Status = models.TaskStatusAssigned
	task.FreelancerID = &freelancerID
	task.AssignedAt = &now

	breakdown, err := json.Marshal(s.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	offer := &models.TaskOffer{
		ID:              uuid.New(),
		TaskID:          task.ID,
		ArtistID:        freelancerID,
		MatchScore:      s.TotalScore,
		ScoreBreakdown:  breakdown,
		EscalationLevel: models.InitialEscalationLevel,
		ExpiresAt:       now,
		Response:        models.OfferResponseAccepted,
		RespondedAt:     &now,
	}
	if err := c.Offers.CreateTx(ctx, tx, offer); err != nil {
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

func (c *Coordinator) logActivity(ctx context.Context, tx pgx.Tx, task *models.Task, s *ArtistScore) error {
	pending := models.TaskStatusPending
	created, err := json.Marshal(map[string]any{
		"complexity":      task.Complexity,
		"urgency":         task.Urgency,
		"creditsRequired": task.CreditsRequired,
		"categoryId":      task.CategoryID,
	})
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}
	if err := c.Activity.CreateTx(ctx, tx, &models.ActivityLog{
		ID:             uuid.New(),
		TaskID:         task.ID,
		ActorID:        task.ClientID,
		Action:         models.ActivityTaskCreated,
		PreviousStatus: &pending,
		NewStatus:      task.Status,
		Metadata:       created,
	}); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	if s == nil {
		return nil
	}

	assigned, err := json.Marshal(map[string]any{
		"freelancerId":   s.Freelancer.UserID,
		"matchScore":     s.TotalScore,
		"isFallback":     s.IsFallback,
		"scoreBreakdown": s.Breakdown,
	})
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}
	if err := c.Activity.CreateTx(ctx, tx, &models.ActivityLog{
		ID:             uuid.New(),
		TaskID:         task.ID,
		ActorID:        task.ClientID,
		Action:         models.ActivityTaskAssigned,
		PreviousStatus: &pending,
		NewStatus:      models.TaskStatusAssigned,
		Metadata:       assigned,
	}); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func notice(task *models.Task, s *ArtistScore) AssignmentNotice {
	n := AssignmentNotice{
		TaskID:    task.ID,
		TaskTitle: task.Title,
		ClientID:  task.ClientID,
		Urgency:   task.Urgency,
	}
	if s != nil {
		id := s.Freelancer.UserID
		n.FreelancerID = &id
		n.FreelancerName = s.Freelancer.Name
		n.FreelancerEmail = s.Freelancer.Email
		n.MatchScore = s.TotalScore
		n.IsFallback = s.IsFallback
	}
	return n
}
