package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studioloop/backend/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Service interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CreditTransaction, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error {
	return s.repo.CreateTx(ctx, tx, c)
}

// History clamps paging to [1, MaxPageSize] and a non-negative offset.
func (s *service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.CreditTransaction, error) {
	limit, offset = ClampPage(limit, offset)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ClampPage normalizes caller-supplied paging values.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
