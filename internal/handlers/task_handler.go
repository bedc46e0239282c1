package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studioloop/backend/internal/httpx"
	"github.com/studioloop/backend/internal/middleware"
	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/repository"
	"github.com/studioloop/backend/internal/services"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TaskCreator runs the assignment transaction.
type TaskCreator interface {
	CreateTask(ctx context.Context, in services.CreateTaskInput) (*services.CreateTaskResult, error)
}

// TaskReader is the subset of the task repository needed for reads.
type TaskReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, v repository.TaskView, f repository.TaskFilter) ([]*models.Task, error)
	Stats(ctx context.Context, v repository.TaskView) (*models.TaskStats, error)
}

// OfferReader lists the offers made for a task.
type OfferReader interface {
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.TaskOffer, error)
}

// ActivityReader lists a task's activity log, oldest first.
type ActivityReader interface {
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.ActivityLog, error)
}

// RequirementsValidator checks the free-form requirements object.
type RequirementsValidator interface {
	ValidateRequirements(raw json.RawMessage) (*services.Requirements, error)
}

// TaskHandler serves /tasks endpoints.
type TaskHandler struct {
	Creator   TaskCreator
	Tasks     TaskReader
	Validator RequirementsValidator
	Offers    OfferReader
	Activity  ActivityReader
	Logger    *slog.Logger
}

// --- POST /tasks ---

type createTaskRequest struct {
	Title           string                  `json:"title" validate:"required,max=200"`
	Description     string                  `json:"description" validate:"max=10000"`
	Category        string                  `json:"category" validate:"omitempty,max=100"`
	Requirements    json.RawMessage         `json:"requirements"`
	EstimatedHours  *float64                `json:"estimatedHours" validate:"omitempty,gte=0,lte=10000"`
	CreditsRequired int                     `json:"creditsRequired" validate:"gt=0"`
	Deadline        *time.Time              `json:"deadline"`
	ChatHistory     json.RawMessage         `json:"chatHistory"`
	StyleReferences json.RawMessage         `json:"styleReferences"`
	Attachments     []models.TaskAttachment `json:"attachments" validate:"omitempty,max=20,dive"`
	MoodboardItems  json.RawMessage         `json:"moodboardItems"`
	BriefID         *uuid.UUID              `json:"briefId"`
}

type createTaskResponse struct {
	TaskID     uuid.UUID  `json:"taskId"`
	Status     string     `json:"status"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	MatchScore *float64   `json:"matchScore"`
}

// CreateTask handles POST /tasks.
// Auth -> Decode -> Validate -> Coordinator transaction -> 201.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized", nil)
		return
	}
	if p.Role != models.RoleClient && p.Role != models.RoleAdmin {
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "only clients can create tasks", nil)
		return
	}

	var req createTaskRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid JSON body", nil)
		return
	}
	if err := getValidator().Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "request validation failed", validationDetails(err))
		return
	}
	reqs, err := h.Validator.ValidateRequirements(req.Requirements)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	res, err := h.Creator.CreateTask(r.Context(), services.CreateTaskInput{
		ClientID:        p.UserID,
		Title:           req.Title,
		Description:     req.Description,
		CategorySlug:    req.Category,
		Requirements:    req.Requirements,
		RequiredSkills:  reqs.Skills,
		EstimatedHours:  req.EstimatedHours,
		CreditsRequired: req.CreditsRequired,
		Deadline:        req.Deadline,
		ChatHistory:     req.ChatHistory,
		StyleReferences: req.StyleReferences,
		MoodboardItems:  req.MoodboardItems,
		Attachments:     req.Attachments,
		BriefID:         req.BriefID,
	})
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, createTaskResponse{
		TaskID:     res.TaskID,
		Status:     res.Status,
		AssignedTo: res.AssignedTo,
		MatchScore: res.MatchScore,
	})
}

// --- GET /tasks ---

type listTasksResponse struct {
	Tasks      []*models.Task    `json:"tasks"`
	Stats      *models.TaskStats `json:"stats"`
	Pagination pagination        `json:"pagination"`
}

type pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

var validStatuses = map[string]bool{
	models.TaskStatusPending:           true,
	models.TaskStatusAssigned:          true,
	models.TaskStatusInProgress:        true,
	models.TaskStatusInReview:          true,
	models.TaskStatusRevisionRequested: true,
	models.TaskStatusCompleted:         true,
	models.TaskStatusCancelled:         true,
}

// ListTasks handles GET /tasks?limit&offset&status&view&userId.
// userId scopes an admin's freelancer or client view.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized", nil)
		return
	}
	q := r.URL.Query()

	subject := uuid.Nil
	if v := q.Get("userId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid userId", nil)
			return
		}
		subject = id
	}
	view, err := repository.ResolveView(p.Role, p.UserID, q.Get("view"), subject)
	switch {
	case errors.Is(err, repository.ErrViewSubjectRequired):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "userId is required for this view", nil)
		return
	case err != nil:
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "view not allowed", nil)
		return
	}

	limit, err := intParam(q.Get("limit"), defaultListLimit)
	if err != nil || limit < 1 {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "limit must be a positive integer", nil)
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "offset must be a non-negative integer", nil)
		return
	}
	status := q.Get("status")
	if status != "" && !validStatuses[status] {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "unknown status", nil)
		return
	}

	tasks, err := h.Tasks.List(r.Context(), view, repository.TaskFilter{Status: status, Limit: uint64(limit), Offset: uint64(offset)})
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}
	stats, err := h.Tasks.Stats(r.Context(), view)
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, listTasksResponse{
		Tasks:      tasks,
		Stats:      stats,
		Pagination: pagination{Limit: limit, Offset: offset},
	})
}

// --- GET /tasks/{id} ---

// GetTask returns a task to its client, its freelancer or an admin.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

// --- GET /tasks/{id}/activity ---

type assignmentSummary struct {
	FreelancerID uuid.UUID `json:"freelancerId"`
	MatchScore   float64   `json:"matchScore"`
	IsFallback   bool      `json:"isFallback"`
}

type taskActivityResponse struct {
	TaskID     uuid.UUID             `json:"taskId"`
	Status     string                `json:"status"`
	Assignment *assignmentSummary    `json:"assignment"`
	Offers     []*models.TaskOffer   `json:"offers"`
	Activity   []*models.ActivityLog `json:"activity"`
}

// GetTaskActivity returns the offers and activity log recorded for a task,
// with the assignment decision lifted out of the "assigned" entry.
func (h *TaskHandler) GetTaskActivity(w http.ResponseWriter, r *http.Request) {
	t, ok := h.visibleTask(w, r)
	if !ok {
		return
	}
	offers, err := h.Offers.ListByTask(r.Context(), t.ID)
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}
	activity, err := h.Activity.ListByTask(r.Context(), t.ID)
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}
	if offers == nil {
		offers = []*models.TaskOffer{}
	}
	if activity == nil {
		activity = []*models.ActivityLog{}
	}

	resp := taskActivityResponse{TaskID: t.ID, Status: t.Status, Offers: offers, Activity: activity}
	for _, a := range activity {
		if a.Action != models.ActivityTaskAssigned || len(a.Metadata) == 0 {
			continue
		}
		var sum assignmentSummary
		if err := json.Unmarshal(a.Metadata, &sum); err != nil {
			writeServiceError(w, middleware.LoggerFrom(r.Context()), fmt.Errorf("decode assignment metadata: %w", err))
			return
		}
		resp.Assignment = &sum
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// visibleTask loads the {id} task and writes the error response when it is
// missing or hidden from the caller.
func (h *TaskHandler) visibleTask(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized", nil)
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "invalid task id", nil)
		return nil, false
	}
	t, err := h.Tasks.GetByID(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !canSeeTask(p, t)) {
		writeServiceError(w, h.Logger, services.ErrTaskNotFound)
		return nil, false
	}
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return nil, false
	}
	return t, true
}

func canSeeTask(p middleware.Principal, t *models.Task) bool {
	switch {
	case p.Role == models.RoleAdmin:
		return true
	case t.ClientID == p.UserID:
		return true
	case t.FreelancerID != nil && *t.FreelancerID == p.UserID:
		return true
	}
	return false
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
