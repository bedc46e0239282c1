package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit transaction types.
const (
	CreditTypePurchase = "PURCHASE"
	CreditTypeUsage    = "USAGE"
	CreditTypeRefund   = "REFUND"
	CreditTypeBonus    = "BONUS"
)

type CreditTransaction struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	Type         string     `json:"type"`
	Amount       int        `json:"amount"`
	BalanceAfter int        `json:"balance_after"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
}
