// Package metrics exposes Prometheus instrumentation for ceremonies, session
// tokens and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "blink"

	LabelCeremony   = "ceremony"
	LabelOutcome    = "outcome"
	LabelReason     = "reason"
	LabelMethod     = "method"
	LabelRoute      = "route"
	LabelStatusCode = "status_code"

	CeremonyRegistration   = "registration"
	CeremonyAuthentication = "authentication"

	OutcomeSuccess = "success"
)

var (
	// CeremoniesTotal counts completed ceremonies by outcome. Failures carry the
	// error class as outcome ("not_found", "attestation_invalid", ...).
	CeremoniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "passkey",
			Name:      "ceremonies_total",
			Help:      "Completed passkey ceremonies by type and outcome",
		},
		[]string{LabelCeremony, LabelOutcome},
	)

	CloneDetectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "passkey",
			Name:      "possible_clone_total",
			Help:      "Assertions rejected because the signature counter did not advance",
		},
	)

	SessionTokensIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "tokens_issued_total",
			Help:      "Session tokens issued",
		},
	)

	AuthorizationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "authorization_failures_total",
			Help:      "Rejected authorization attempts by reason",
		},
		[]string{LabelReason},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		},
		[]string{LabelMethod, LabelRoute, LabelStatusCode},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{LabelMethod, LabelRoute},
	)
)

// RecordCeremony counts one completed ceremony.
func RecordCeremony(ceremony, outcome string) {
	CeremoniesTotal.WithLabelValues(ceremony, outcome).Inc()
}

func RecordCloneDetection() {
	CloneDetectionsTotal.Inc()
}

func RecordTokenIssued() {
	SessionTokensIssuedTotal.Inc()
}

func RecordAuthorizationFailure(reason string) {
	AuthorizationFailuresTotal.WithLabelValues(reason).Inc()
}
