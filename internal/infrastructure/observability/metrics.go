package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Outbound calls to the payment gateway, by operation and outcome.
	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "Total number of payment gateway calls",
		},
		[]string{"operation", "status"},
	)

	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Lifecycle state transitions observed by the payment watcher.
	PaymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Total number of payment state transitions",
		},
		[]string{"to"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(GatewayCalls, GatewayDuration, PaymentTransitions)
}
