package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayAttemptsTotal tracks network attempts per endpoint and outcome
	GatewayAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgate_gateway_attempts_total",
			Help: "Total number of gateway network attempts",
		},
		[]string{"method", "path", "outcome"},
	)

	// GatewayRetriesTotal tracks attempts that were followed by a backoff and retry
	GatewayRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgate_gateway_retries_total",
			Help: "Total number of gateway retries",
		},
		[]string{"method", "path"},
	)

	// GatewayErrorsTotal tracks classified errors surfaced to callers
	GatewayErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgate_gateway_errors_total",
			Help: "Total number of classified gateway errors",
		},
		[]string{"method", "path", "kind"},
	)

	// GatewayAttemptLatency tracks per-attempt latency
	GatewayAttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardgate_gateway_attempt_latency_seconds",
			Help:    "Gateway attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
