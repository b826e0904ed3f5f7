// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExperimentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notebook_experiments_total",
			Help: "Total number of experiments started",
		},
		[]string{"replicas"},
	)

	PracticeUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notebook_practice_updates_total",
			Help: "Total number of practice record updates",
		},
		[]string{"kind"},
	)

	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notebook_audit_events_total",
			Help: "Total number of audit trail appends",
		},
		[]string{"action"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
