package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Observations counts provider status observations fed into the
	// reconciliation engine, by source (poll, webhook) and outcome.
	Observations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_observations_total",
			Help: "Total provider status observations processed by the reconciliation engine",
		},
		[]string{"source", "outcome"},
	)

	// Settlements counts settlement executor runs by direction and result.
	Settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Total settlement executor invocations",
		},
		[]string{"direction", "result"},
	)

	// WebhookRejected counts webhook deliveries rejected before processing.
	WebhookRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_rejected_total",
			Help: "Total webhook deliveries rejected due to failed authentication",
		},
	)

	// ActivePollers tracks currently running reconciliation pollers.
	ActivePollers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reconcile_active_pollers",
			Help: "Number of reconciliation pollers currently running",
		},
	)
)

// Register installs the collectors on the default registry. Call once at
// startup; tests exercising the instrumented packages skip registration.
func Register() {
	prometheus.MustRegister(Observations, Settlements, WebhookRejected, ActivePollers)
}
