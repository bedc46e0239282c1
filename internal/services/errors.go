package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCredits is returned when a client's balance cannot cover a task.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrUserNotFound is returned when the client row does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrTaskNotFound is returned when a task is missing or not visible to the caller.
	ErrTaskNotFound = errors.New("task not found")
	// ErrBriefNotFound is returned when a brief cannot be linked to a new task.
	ErrBriefNotFound = errors.New("brief not found")
)

// InsufficientCreditsError carries the amounts behind an ErrInsufficientCredits.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Unwrap() error { return ErrInsufficientCredits }
