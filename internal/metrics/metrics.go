// Package metrics holds the Prometheus collectors shared by the HTTP layer,
// the order services and the notification workers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakehub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bakehub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OrderOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakehub_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	OrderOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bakehub_order_operation_duration_seconds",
			Help:    "Order operation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakehub_notifications_total",
			Help: "Notification events and deliveries by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)
)

// RecordOrderOperation counts an order operation and observes its latency.
func RecordOrderOperation(operation string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	OrderOperationsTotal.WithLabelValues(operation, status).Inc()
	OrderOperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordNotification counts a notification outcome. stage is one of
// publish, push or email.
func RecordNotification(stage string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	NotificationsTotal.WithLabelValues(stage, outcome).Inc()
}
