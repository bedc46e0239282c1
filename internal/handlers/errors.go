package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/studioloop/backend/internal/httpx"
	"github.com/studioloop/backend/internal/services"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// validationDetails flattens validator errors into field/rule pairs.
func validationDetails(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
	}
	return out
}

// writeServiceError maps domain errors onto the HTTP error envelope.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var ice *services.InsufficientCreditsError
	switch {
	case errors.As(err, &ice):
		httpx.WriteError(w, http.StatusPaymentRequired, httpx.CodeInsufficientCredits, "insufficient credits",
			map[string]int{"required": ice.Required, "available": ice.Available})
	case errors.Is(err, services.ErrInsufficientCredits):
		httpx.WriteError(w, http.StatusPaymentRequired, httpx.CodeInsufficientCredits, "insufficient credits", nil)
	case errors.Is(err, services.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, err.Error(), nil)
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "user not found", nil)
	case errors.Is(err, services.ErrBriefNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "brief not found", nil)
	case errors.Is(err, services.ErrTaskNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "task not found", nil)
	default:
		log.Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error", nil)
	}
}
