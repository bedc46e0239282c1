// Package router assembles the HTTP surface of the API.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studioloop/backend/internal/auth"
	"github.com/studioloop/backend/internal/handlers"
	"github.com/studioloop/backend/internal/httpx"
	"github.com/studioloop/backend/internal/middleware"
	"github.com/studioloop/backend/internal/observability"
)

// Deps are the handlers and collaborators mounted by New.
type Deps struct {
	Auth     *auth.Handler
	Tasks    *handlers.TaskHandler
	Accounts *handlers.AccountHandler
	Tokens   middleware.TokenValidator
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(ctx context.Context) error
	// CreateRateLimit is the per-IP budget for POST /tasks per minute; <= 0 disables it.
	CreateRateLimit int
}

// New returns the chi router serving the API.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(observability.HTTPMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyz(d.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", d.Auth.Login)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.JWTAuth(d.Tokens))

		pr.Get("/account/me", d.Accounts.GetMe)
		pr.Get("/credit-transactions", d.Accounts.ListCreditTransactions)

		pr.Get("/tasks", d.Tasks.ListTasks)
		pr.Get("/tasks/{id}", d.Tasks.GetTask)
		pr.Get("/tasks/{id}/activity", d.Tasks.GetTaskActivity)
		pr.With(createLimiter(d.CreateRateLimit)).Post("/tasks", d.Tasks.CreateTask)
	})

	return r
}

func createLimiter(perMin int) func(http.Handler) http.Handler {
	if perMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMin, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			httpx.WriteError(w, http.StatusTooManyRequests, httpx.CodeRateLimited, "too many task creations", nil)
		}),
	)
}

func readyz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				middleware.LoggerFrom(r.Context()).Warn("readiness check failed", "error", err)
				httpx.WriteError(w, http.StatusServiceUnavailable, httpx.CodeInternal, "not ready", nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
