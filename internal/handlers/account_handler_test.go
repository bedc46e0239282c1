package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioloop/backend/internal/models"
)

type mockUsers map[uuid.UUID]*models.User

func (m mockUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type mockHistory struct {
	limit, offset int
	rows          []*models.CreditTransaction
}

func (m *mockHistory) History(_ context.Context, _ uuid.UUID, limit, offset int) ([]*models.CreditTransaction, error) {
	m.limit, m.offset = limit, offset
	return m.rows, nil
}

func TestGetMe(t *testing.T) {
	id := uuid.New()
	h := &AccountHandler{
		Users:  mockUsers{id: {ID: id, Email: "ana@example.com", Name: "Ana", Role: models.RoleClient, Credits: 42, PasswordHash: "secret"}},
		Logger: slog.Default(),
	}

	rec := httptest.NewRecorder()
	h.GetMe(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/account/me", nil), id, models.RoleClient))
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 42, got["credits"])
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = httptest.NewRecorder()
	h.GetMe(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/account/me", nil), uuid.New(), models.RoleClient))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCreditTransactions(t *testing.T) {
	hist := &mockHistory{rows: []*models.CreditTransaction{{Amount: -10, Type: models.CreditTypeUsage}}}
	h := &AccountHandler{Credits: hist, Logger: slog.Default()}

	rec := httptest.NewRecorder()
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/credit-transactions?limit=5&offset=2", nil), uuid.New(), models.RoleClient)
	h.ListCreditTransactions(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, hist.limit)
	assert.Equal(t, 2, hist.offset)
	assert.Contains(t, rec.Body.String(), `"transactions"`)

	rec = httptest.NewRecorder()
	h.ListCreditTransactions(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/credit-transactions?limit=x", nil), uuid.New(), models.RoleClient))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
