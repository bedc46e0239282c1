package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity actions written by the assignment engine.
const (
	ActivityTaskCreated  = "created"
	ActivityTaskAssigned = "assigned"
)

type ActivityLog struct {
	ID             uuid.UUID       `json:"id"`
	TaskID         uuid.UUID       `json:"task_id"`
	ActorID        uuid.UUID       `json:"actor_id"`
	Action         string          `json:"action"`
	PreviousStatus *string         `json:"previous_status,omitempty"`
	NewStatus      string          `json:"new_status"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
