package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Offer responses. Auto-assigned offers are created already ACCEPTED.
const (
	OfferResponsePending  = "PENDING"
	OfferResponseAccepted = "ACCEPTED"
	OfferResponseDeclined = "DECLINED"
	OfferResponseExpired  = "EXPIRED"
)

// InitialEscalationLevel is the only level used until multi-round offers exist.
const InitialEscalationLevel = 1

type TaskOffer struct {
	ID              uuid.UUID       `json:"id"`
	TaskID          uuid.UUID       `json:"task_id"`
	ArtistID        uuid.UUID       `json:"artist_id"`
	MatchScore      float64         `json:"match_score"`
	ScoreBreakdown  json.RawMessage `json:"score_breakdown"`
	EscalationLevel int             `json:"escalation_level"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Response        string          `json:"response"`
	RespondedAt     *time.Time      `json:"responded_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
