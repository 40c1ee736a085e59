// Package observability provides Prometheus metrics for request handling,
// content negotiation and predicate guards.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Negotiation outcomes.
const (
	OutcomeMatched     = "matched"
	OutcomeFallback    = "fallback"
	OutcomeUnsupported = "unsupported"
)

// Predicate decisions.
const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

var (
	// RequestsTotal counts HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqmatch_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reqmatch_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// NegotiationsTotal counts content negotiation results. media_type is
	// the chosen representation, or empty for fallback and unsupported.
	NegotiationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqmatch_negotiations_total",
			Help: "Content negotiation outcomes",
		},
		[]string{"outcome", "media_type"},
	)

	// PredicateDecisionsTotal counts conditional handler decisions.
	PredicateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqmatch_predicate_decisions_total",
			Help: "Predicate guard decisions",
		},
		[]string{"decision"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		NegotiationsTotal,
		PredicateDecisionsTotal,
	)
}

// ObserveRequest records one served request. Statuses are grouped by
// class ("2xx", "4xx", ...) to bound label cardinality.
func ObserveRequest(method string, status int, d time.Duration) {
	RequestsTotal.WithLabelValues(method, StatusClass(status)).Inc()
	RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// StatusClass maps 404 to "4xx". Out-of-range codes are returned verbatim.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}

// ObserveNegotiation records one negotiation result.
func ObserveNegotiation(outcome, mediaType string) {
	NegotiationsTotal.WithLabelValues(outcome, mediaType).Inc()
}

// ObserveDecision records one predicate decision.
func ObserveDecision(accepted bool) {
	if accepted {
		PredicateDecisionsTotal.WithLabelValues(DecisionAccept).Inc()
		return
	}
	PredicateDecisionsTotal.WithLabelValues(DecisionDecline).Inc()
}
