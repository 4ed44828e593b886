// Package observability provides Prometheus metrics for the agent.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tubetap"

// Metrics holds all agent metrics. Create at most one per process.
type Metrics struct {
	RequestsDispatched *prometheus.CounterVec
	RequestsRejected   prometheus.Counter
	RequestsCompleted  prometheus.Counter
	StaleResponses     prometheus.Counter
	PollsIssued        prometheus.Counter
	ActiveRequests     prometheus.Gauge
	RefreshCycles      prometheus.Counter
}

// New creates and registers all agent metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "dispatched_total",
			Help:      "Total download requests dispatched to the helper",
		}, []string{"kind"}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "rejected_total",
			Help:      "Total requests the helper rejected",
		}),
		RequestsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "completed_total",
			Help:      "Total requests that reached a completed artifact",
		}),
		StaleResponses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "stale_responses_total",
			Help:      "Responses dropped because their request ID was unknown",
		}),
		PollsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "polling",
			Name:      "queries_total",
			Help:      "Total job status queries issued",
		}),
		ActiveRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "active",
			Help:      "Requests currently awaiting a response or polling",
		}),
		RefreshCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "refresh_total",
			Help:      "Total pipeline re-evaluation cycles",
		}),
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
