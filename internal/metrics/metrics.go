package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PlaybookExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playbook_executions_total",
			Help: "Total number of playbook executions by playbook and status",
		},
		[]string{"playbook", "status"},
	)

	VaultOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_operations_total",
			Help: "Total number of Vault operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	LockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lock_wait_seconds",
			Help:    "Time spent waiting to acquire the cluster lock",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)
)

func Register() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PlaybookExecutionsTotal,
		VaultOperationsTotal,
		LockWaitSeconds,
	)
}
