package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Assignment outcomes.
const (
	OutcomeMatched    = "matched"
	OutcomeFallback   = "fallback"
	OutcomeUnassigned = "unassigned"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_assignments_total",
			Help: "Task creations by assignment outcome",
		},
		[]string{"outcome"},
	)
	MatchScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "task_match_score",
			Help:    "Distribution of winning match scores ([0,100])",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
	CandidatesExcludedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidates_excluded_total",
			Help: "Candidates removed by a hard constraint during ranking",
		},
		[]string{"reason"},
	)
	InsufficientCreditsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "task_insufficient_credits_total",
			Help: "Task creations rejected for insufficient credits",
		},
	)
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AssignmentsTotal)
	prometheus.MustRegister(MatchScoreHistogram)
	prometheus.MustRegister(CandidatesExcludedTotal)
	prometheus.MustRegister(InsufficientCreditsTotal)
	prometheus.MustRegister(NotificationsTotal)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveAssignment records the outcome of one task creation.
func ObserveAssignment(outcome string, score float64) {
	AssignmentsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeMatched && score >= 0 && score <= 100 {
		MatchScoreHistogram.Observe(score)
	}
}

func ObserveExclusion(reason string) {
	CandidatesExcludedTotal.WithLabelValues(reason).Inc()
}

func ObserveNotification(channel string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	NotificationsTotal.WithLabelValues(channel, result).Inc()
}
