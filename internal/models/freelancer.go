package models

import (
	"github.com/google/uuid"
)

// Freelancer profile status values. Only APPROVED profiles are candidates.
const (
	FreelancerStatusPending  = "PENDING"
	FreelancerStatusApproved = "APPROVED"
	FreelancerStatusRejected = "REJECTED"
)

type ExperienceLevel string

const (
	ExperienceJunior ExperienceLevel = "JUNIOR"
	ExperienceMid    ExperienceLevel = "MID"
	ExperienceSenior ExperienceLevel = "SENIOR"
	ExperienceExpert ExperienceLevel = "EXPERT"
)

// Freelancer is a read-only snapshot of an approved freelancer taken for one
// ranking pass. ActiveTasks is computed by the repository at read time.
type Freelancer struct {
	UserID              uuid.UUID       `json:"user_id"`
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	Timezone            string          `json:"timezone"`
	ExperienceLevel     ExperienceLevel `json:"experience_level"`
	Rating              float64         `json:"rating"`
	CompletedTasks      int             `json:"completed_tasks"`
	AcceptanceRate      *float64        `json:"acceptance_rate,omitempty"`
	OnTimeRate          *float64        `json:"on_time_rate,omitempty"`
	MaxConcurrentTasks  int             `json:"max_concurrent_tasks"`
	ActiveTasks         int             `json:"active_tasks"`
	WorkingHoursStart   string          `json:"working_hours_start"`
	WorkingHoursEnd     string          `json:"working_hours_end"`
	AcceptsUrgentTasks  bool            `json:"accepts_urgent_tasks"`
	VacationMode        bool            `json:"vacation_mode"`
	Skills              []string        `json:"skills"`
	Specializations     []string        `json:"specializations"`
	PreferredCategories []string        `json:"preferred_categories"`
}
