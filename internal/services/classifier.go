package services

import (
	"time"
	"unicode/utf8"

	"github.com/studioloop/backend/internal/models"
)

// Urgency windows measured from now to the deadline.
const (
	CriticalWindow = 24 * time.Hour
	HighWindow     = 72 * time.Hour
)

// DetectTaskComplexity classifies a task from its estimated effort, number of
// required skills and description length. Each signal contributes 0–2 points;
// a missing or negative estimate falls back to a MODERATE baseline that only
// rises to COMPLEX when the other two signals are strong.
func DetectTaskComplexity(estimatedHours *float64, requiredSkillCount int, description string) models.Complexity {
	skillPts := skillPoints(requiredSkillCount)
	descPts := descriptionPoints(description)

	if estimatedHours == nil || *estimatedHours < 0 {
		if skillPts+descPts >= 3 {
			return models.ComplexityComplex
		}
		return models.ComplexityModerate
	}

	total := hourPoints(*estimatedHours) + skillPts + descPts
	switch {
	case total <= 1:
		return models.ComplexitySimple
	case total <= 3:
		return models.ComplexityModerate
	default:
		return models.ComplexityComplex
	}
}

func hourPoints(h float64) int {
	switch {
	case h <= 4:
		return 0
	case h <= 16:
		return 1
	default:
		return 2
	}
}

func skillPoints(n int) int {
	switch {
	case n <= 1:
		return 0
	case n <= 3:
		return 1
	default:
		return 2
	}
}

func descriptionPoints(desc string) int {
	n := utf8.RuneCountInString(desc)
	switch {
	case n < 200:
		return 0
	case n < 800:
		return 1
	default:
		return 2
	}
}

// DetectTaskUrgency derives an urgency tier from the deadline relative to the wall clock.
func DetectTaskUrgency(deadline *time.Time) models.Urgency {
	return UrgencyAt(deadline, time.Now())
}

// UrgencyAt is DetectTaskUrgency with an explicit clock. Past-due deadlines are CRITICAL.
func UrgencyAt(deadline *time.Time, now time.Time) models.Urgency {
	if deadline == nil {
		return models.UrgencyLow
	}
	left := deadline.Sub(now)
	switch {
	case left <= CriticalWindow:
		return models.UrgencyCritical
	case left <= HighWindow:
		return models.UrgencyHigh
	default:
		return models.UrgencyNormal
	}
}
