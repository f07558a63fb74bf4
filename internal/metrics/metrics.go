package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roombook_sessions_started_total",
			Help: "Booking sessions opened",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roombook_sessions_expired_total",
			Help: "Booking sessions closed by the idle sweeper",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roombook_active_sessions",
			Help: "Sessions held in the in-memory registry backend",
		},
	)

	// outcome: confirmed, conflict, retry, invalid
	CommitOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombook_commit_outcomes_total",
			Help: "Slot commit attempts by outcome",
		},
		[]string{"outcome"},
	)

	AvailabilityDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roombook_availability_query_duration_seconds",
			Help:    "Time to compute the available slots for one date",
			Buckets: prometheus.DefBuckets,
		},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombook_errors_total",
			Help: "Errors returned to callers by kind",
		},
		[]string{"component", "kind"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roombook_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roombook_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func RecordCommit(outcome string) {
	CommitOutcomes.WithLabelValues(outcome).Inc()
}

func RecordError(component, kind string) {
	ErrorsTotal.WithLabelValues(component, kind).Inc()
}

func RecordHTTPRequest(method, route, status string) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
