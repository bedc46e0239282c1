package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleClient     = "CLIENT"
	RoleFreelancer = "FREELANCER"
	RoleAdmin      = "ADMIN"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	Credits      int       `json:"credits"`
	Timezone     string    `json:"timezone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
