// Package metrics exposes Prometheus collectors for the API.
//
// Usage:
//
//	// Count a relation mutation
//	RecordRelationMutation("favorite", "add", "duplicate")
//
//	// Count an access decision
//	RecordPolicyDecision("object", false)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks handler latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// PolicyDecisionsTotal counts access policy outcomes per check level.
	PolicyDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_decisions_total",
			Help: "Total number of access policy decisions",
		},
		[]string{"check", "decision"},
	)

	// RelationMutationsTotal counts favorite/cart/subscription add and remove attempts.
	RelationMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_mutations_total",
			Help: "Total number of relation add/remove attempts by outcome",
		},
		[]string{"kind", "op", "result"},
	)
)

// RecordRequest records one finished HTTP request.
func RecordRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordPolicyDecision records an allow or deny for a request or object check.
func RecordPolicyDecision(check string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	PolicyDecisionsTotal.WithLabelValues(check, decision).Inc()
}

// RecordRelationMutation records a relation add/remove with its result label.
func RecordRelationMutation(kind, op, result string) {
	RelationMutationsTotal.WithLabelValues(kind, op, result).Inc()
}
