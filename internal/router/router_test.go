package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioloop/backend/internal/auth"
	"github.com/studioloop/backend/internal/handlers"
	"github.com/studioloop/backend/internal/middleware"
	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/repository"
	"github.com/studioloop/backend/internal/services"
)

type stubTokens struct{ id uuid.UUID }

func (s stubTokens) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	if token != "good" {
		return uuid.Nil, "", errors.New("bad token")
	}
	return s.id, models.RoleClient, nil
}

type stubTasks struct{}

func (stubTasks) GetByID(context.Context, uuid.UUID) (*models.Task, error) { return nil, errors.New("unused") }
func (stubTasks) List(context.Context, repository.TaskView, repository.TaskFilter) ([]*models.Task, error) {
	return []*models.Task{}, nil
}
func (stubTasks) Stats(context.Context, repository.TaskView) (*models.TaskStats, error) {
	return &models.TaskStats{}, nil
}

type stubCreator struct{}

func (stubCreator) CreateTask(context.Context, services.CreateTaskInput) (*services.CreateTaskResult, error) {
	return &services.CreateTaskResult{TaskID: uuid.New(), Status: models.TaskStatusPending}, nil
}

var _ middleware.TokenValidator = stubTokens{}

func newTestRouter(t *testing.T, limit int, ready func(context.Context) error) http.Handler {
	t.Helper()
	v, err := services.NewValidator()
	require.NoError(t, err)
	return New(Deps{
		Auth:            auth.NewHandler(nil, slog.Default()),
		Tasks:           &handlers.TaskHandler{Creator: stubCreator{}, Tasks: stubTasks{}, Validator: v, Logger: slog.Default()},
		Accounts:        &handlers.AccountHandler{Logger: slog.Default()},
		Tokens:          stubTokens{id: uuid.New()},
		Ready:           ready,
		CreateRateLimit: limit,
	})
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, 0, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, 0, func(context.Context) error { return errors.New("db down") }).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTasksRequireToken(t *testing.T) {
	h := newTestRouter(t, 0, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCreateTaskRateLimited(t *testing.T) {
	h := newTestRouter(t, 2, nil)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"title":"x","creditsRequired":1}`))
		req.Header.Set("Authorization", "Bearer good")
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		}
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}
