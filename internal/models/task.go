package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task status values. The assignment engine only ever writes PENDING and
// ASSIGNED; the rest belong to the task-management flows.
const (
	TaskStatusPending           = "PENDING"
	TaskStatusAssigned          = "ASSIGNED"
	TaskStatusInProgress        = "IN_PROGRESS"
	TaskStatusInReview          = "IN_REVIEW"
	TaskStatusRevisionRequested = "REVISION_REQUESTED"
	TaskStatusCompleted         = "COMPLETED"
	TaskStatusCancelled         = "CANCELLED"
)

// ActiveTaskStatuses count against a freelancer's workload and a client's
// active-task stats.
var ActiveTaskStatuses = []string{
	TaskStatusAssigned,
	TaskStatusInProgress,
	TaskStatusInReview,
	TaskStatusRevisionRequested,
}

type Complexity string

const (
	ComplexitySimple   Complexity = "SIMPLE"
	ComplexityModerate Complexity = "MODERATE"
	ComplexityComplex  Complexity = "COMPLEX"
)

type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyNormal   Urgency = "NORMAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// IsUrgent reports whether freelancers opting out of urgent work must be excluded.
func (u Urgency) IsUrgent() bool {
	return u == UrgencyHigh || u == UrgencyCritical
}

// TaskDescriptor is the per-request input the assignment engine scores against.
type TaskDescriptor struct {
	ID             uuid.UUID
	Title          string
	Description    string
	Complexity     Complexity
	Urgency        Urgency
	RequiredSkills []string
	CategorySlug   string
	ClientID       uuid.UUID
	ClientTimezone string
	Deadline       *time.Time
	EstimatedHours *float64
}

type Task struct {
	ID              uuid.UUID       `json:"id"`
	ClientID        uuid.UUID       `json:"client_id"`
	FreelancerID    *uuid.UUID      `json:"freelancer_id,omitempty"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	Complexity      Complexity      `json:"complexity"`
	Urgency         Urgency         `json:"urgency"`
	Requirements    json.RawMessage `json:"requirements,omitempty"`
	StyleReferences json.RawMessage `json:"style_references,omitempty"`
	MoodboardItems  json.RawMessage `json:"moodboard_items,omitempty"`
	ChatHistory     json.RawMessage `json:"chat_history,omitempty"`
	EstimatedHours  *float64        `json:"estimated_hours,omitempty"`
	CreditsRequired int             `json:"credits_required"`
	Deadline        *time.Time      `json:"deadline,omitempty"`
	AssignedAt      *time.Time      `json:"assigned_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TaskStats aggregates the task list for one view.
type TaskStats struct {
	ActiveTasks      int `json:"activeTasks"`
	CompletedTasks   int `json:"completedTasks"`
	TotalCreditsUsed int `json:"totalCreditsUsed"`
}

// TaskAttachment links an already-uploaded file to a task.
type TaskAttachment struct {
	FileName string `json:"fileName" validate:"required"`
	FileURL  string `json:"fileUrl" validate:"required,url"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize" validate:"gte=0"`
}
