package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventProcessLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_process_latency_ms",
			Help:    "Event processing latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"service", "topic"},
	)

	EventProcessedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_processed_count",
			Help: "Total number of bus events processed",
		},
		[]string{"service", "topic", "status"}, // status: success, error, ignored
	)

	BackendCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_latency_ms",
			Help:    "Task-owning backend call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"endpoint", "status"},
	)

	TaskInstanceCreatedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_instance_created_count",
			Help: "Total number of task instances materialized from recurring tasks",
		},
	)

	NotificationDispatchCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_count",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"channel", "status"}, // status: sent, failed, skipped
	)

	RedeliveryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_redelivery_count",
			Help: "Total number of journaled events replayed",
		},
		[]string{"service", "outcome"}, // outcome: retried, gave_up
	)
)

func RecordEventProcessed(service, topic, status string, duration time.Duration) {
	EventProcessLatency.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
	EventProcessedCount.WithLabelValues(service, topic, status).Inc()
}

func RecordBackendCallLatency(endpoint, status string, duration time.Duration) {
	BackendCallLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

func IncrementNotificationDispatch(channel, status string) {
	NotificationDispatchCount.WithLabelValues(channel, status).Inc()
}
