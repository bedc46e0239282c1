package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/studioloop/backend/internal/models"
)

// CreditUserRepo is the minimal user repository interface for credit handling.
type CreditUserRepo interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
}

// CreditLedgerRepo is the minimal credit transaction interface for credit handling.
type CreditLedgerRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error
}

// CreditService checks and charges client credits inside the caller's transaction.
type CreditService struct {
	UserRepo   CreditUserRepo
	LedgerRepo CreditLedgerRepo
}

// NewCreditService returns a new CreditService.
func NewCreditService(userRepo CreditUserRepo, ledgerRepo CreditLedgerRepo) *CreditService {
	return &CreditService{UserRepo: userRepo, LedgerRepo: ledgerRepo}
}

// Reserve locks the user row (SELECT FOR UPDATE) and verifies the balance covers amount.
// The lock is held until the transaction ends.
func (s *CreditService) Reserve(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int) (*models.User, error) {
	u, err := s.UserRepo.GetByIDForUpdate(ctx, tx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	if u.Credits < amount {
		return nil, &InsufficientCreditsError{Required: amount, Available: u.Credits}
	}
	return u, nil
}

// Charge deducts amount with a conditional update and records a USAGE transaction linked to the task.
func (s *CreditService) Charge(ctx context.Context, tx pgx.Tx, userID, taskID uuid.UUID, amount int, description string) (int, error) {
	newBalance, err := s.UserRepo.DeductCredits(ctx, tx, userID, amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("deduct %d credits: %w", amount, ErrInsufficientCredits)
	}
	if err != nil {
		return 0, fmt.Errorf("deduct credits: %w", err)
	}
	entry := &models.CreditTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		TaskID:       &taskID,
		Type:         models.CreditTypeUsage,
		Amount:       -amount,
		BalanceAfter: newBalance,
		Description:  description,
	}
	if err := s.LedgerRepo.CreateTx(ctx, tx, entry); err != nil {
		return 0, fmt.Errorf("record credit transaction: %w", err)
	}
	return newBalance, nil
}
