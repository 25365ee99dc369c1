package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Execution metrics for the command/query pipeline.
var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_operations_total",
			Help: "Total number of executed domain operations.",
		},
		[]string{"operation", "kind", "status"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domain_operation_duration_seconds",
			Help:    "Domain operation latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "kind"},
	)

	initOnce sync.Once
)

// Init registers pipeline metrics in the default registry.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(operationsTotal, operationDuration)
	})
}

// ObserveOperation records one pipeline execution. kind is "command" or
// "query"; status is "ok", "validation_failed", "unauthorized" or "error".
func ObserveOperation(operation, kind, status string, d time.Duration) {
	operationsTotal.WithLabelValues(operation, kind, status).Inc()
	operationDuration.WithLabelValues(operation, kind).Observe(d.Seconds())
}
