package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studioloop/backend/internal/models"
)

// FallbackRepo finds any approved freelancer regardless of availability.
// It returns (nil, nil) when none exists.
type FallbackRepo interface {
	FindAnyApproved(ctx context.Context) (*models.Freelancer, error)
}

// Selector applies the selection policy on top of a ranking: the best
// eligible candidate wins; with none, any approved freelancer is forced in.
type Selector struct {
	Matcher  *Matcher
	Fallback FallbackRepo
	TopN     int
}

// NewSelector returns a new Selector.
func NewSelector(matcher *Matcher, fallback FallbackRepo, topN int) *Selector {
	return &Selector{Matcher: matcher, Fallback: fallback, TopN: topN}
}

// Select returns the chosen candidate, or nil when no approved freelancer exists.
func (s *Selector) Select(ctx context.Context, task *models.TaskDescriptor) (*ArtistScore, error) {
	ranked, err := s.Matcher.RankArtistsForTask(ctx, task, s.TopN)
	if err != nil {
		return nil, err
	}
	if len(ranked) > 0 {
		best := ranked[0]
		return &best, nil
	}

	f, err := s.Fallback.FindAnyApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("find fallback freelancer: %w", err)
	}
	if f == nil {
		slog.Warn("no approved freelancer available, task stays pending",
			"client_id", task.ClientID, "urgency", task.Urgency)
		return nil, nil
	}
	slog.Warn("no eligible candidate, forcing fallback assignment",
		"client_id", task.ClientID, "freelancer_id", f.UserID, "urgency", task.Urgency)
	return FallbackScore(f), nil
}

// FallbackScore is the degenerate score recorded for a forced assignment.
func FallbackScore(f *models.Freelancer) *ArtistScore {
	return &ArtistScore{Freelancer: f, IsFallback: true}
}
