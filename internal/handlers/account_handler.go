package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studioloop/backend/internal/httpx"
	"github.com/studioloop/backend/internal/middleware"
	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/services"
)

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type CreditHistory interface {
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CreditTransaction, error)
}

// AccountHandler serves the caller's balance and credit history.
type AccountHandler struct {
	Users   UserReader
	Credits CreditHistory
	Logger  *slog.Logger
}

type meResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Credits  int       `json:"credits"`
	Timezone string    `json:"timezone,omitempty"`
}

// GetMe handles GET /account/me.
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized", nil)
		return
	}
	u, err := h.Users.GetByID(r.Context(), p.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeServiceError(w, h.Logger, services.ErrUserNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{
		ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Credits: u.Credits, Timezone: u.Timezone,
	})
}

// ListCreditTransactions handles GET /credit-transactions?limit&offset.
func (h *AccountHandler) ListCreditTransactions(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "unauthorized", nil)
		return
	}
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), 0)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "limit must be an integer", nil)
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "offset must be an integer", nil)
		return
	}
	list, err := h.Credits.History(r.Context(), p.UserID, limit, offset)
	if err != nil {
		writeServiceError(w, middleware.LoggerFrom(r.Context()), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transactions": list})
}
