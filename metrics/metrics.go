package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transaction outcomes recorded by the envelope.
const (
	OutcomeCommitted        = "committed"
	OutcomeRolledBack       = "rolled_back"
	OutcomeValidationFailed = "validation_failed"
	OutcomeBeginFailed      = "begin_failed"
	OutcomeCommitFailed     = "commit_failed"
)

// Metrics holds the application collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contactlist",
			Name:      "requests_total",
			Help:      "Requests handled by the transaction envelope, by request type and outcome.",
		}, []string{"request", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contactlist",
			Name:      "request_duration_seconds",
			Help:      "Time spent inside the transaction envelope.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contactlist",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.requests, m.duration, m.httpRequests)
	return m
}

// ObserveRequest records one envelope call.
func (m *Metrics) ObserveRequest(request, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(request, outcome).Inc()
	m.duration.WithLabelValues(request).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}
