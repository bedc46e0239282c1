package repository

import (
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/studioloop/backend/internal/models"
)

var (
	// ErrViewForbidden is returned when a caller requests a view their role does not allow.
	ErrViewForbidden = errors.New("view not allowed for role")
	// ErrViewSubjectRequired is returned when an admin asks for a freelancer or
	// client view without naming whose tasks to show.
	ErrViewSubjectRequired = errors.New("view requires a user id")
)

// TaskView scopes task queries. It is one of AdminView, FreelancerView or ClientView.
type TaskView interface {
	taskView()
}

// AdminView sees every task.
type AdminView struct{}

// FreelancerView sees tasks assigned to FreelancerID.
type FreelancerView struct{ FreelancerID uuid.UUID }

// ClientView sees tasks created by ClientID.
type ClientView struct{ ClientID uuid.UUID }

func (AdminView) taskView()      {}
func (FreelancerView) taskView() {}
func (ClientView) taskView()     {}

// Requested view names accepted at the HTTP boundary.
const (
	ViewAdmin      = "admin"
	ViewFreelancer = "freelancer"
	ViewClient     = "client"
)

// ResolveView picks the view for a caller. An empty request uses the caller's
// role. Non-admins may only request their own view, and subject must be
// uuid.Nil or their own id. Admins may request any view; freelancer and client
// views are scoped to subject, which they must name.
func ResolveView(role string, userID uuid.UUID, requested string, subject uuid.UUID) (TaskView, error) {
	requested = strings.ToLower(strings.TrimSpace(requested))
	if requested == "" {
		switch role {
		case models.RoleAdmin:
			requested = ViewAdmin
		case models.RoleFreelancer:
			requested = ViewFreelancer
		default:
			requested = ViewClient
		}
	}

	if role == models.RoleAdmin {
		switch requested {
		case ViewAdmin:
			return AdminView{}, nil
		case ViewFreelancer, ViewClient:
			if subject == uuid.Nil {
				return nil, ErrViewSubjectRequired
			}
			userID = subject
		default:
			return nil, ErrViewForbidden
		}
	} else if subject != uuid.Nil && subject != userID {
		return nil, ErrViewForbidden
	}

	allowed := role == models.RoleAdmin ||
		(requested == ViewFreelancer && role == models.RoleFreelancer) ||
		(requested == ViewClient && role == models.RoleClient)
	if !allowed {
		return nil, ErrViewForbidden
	}

	switch requested {
	case ViewAdmin:
		return AdminView{}, nil
	case ViewFreelancer:
		return FreelancerView{FreelancerID: userID}, nil
	case ViewClient:
		return ClientView{ClientID: userID}, nil
	}
	return nil, ErrViewForbidden
}

// applyView adds the view's WHERE clause to a task query.
func applyView(b sq.SelectBuilder, v TaskView) sq.SelectBuilder {
	switch v := v.(type) {
	case AdminView:
		return b
	case FreelancerView:
		return b.Where(sq.Eq{"freelancer_id": v.FreelancerID})
	case ClientView:
		return b.Where(sq.Eq{"client_id": v.ClientID})
	}
	// unknown views match nothing
	return b.Where("false")
}
