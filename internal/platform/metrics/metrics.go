// Package metrics owns the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPMetrics struct {
	InFlight        prometheus.Gauge
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type OutboxMetrics struct {
	EnqueueTotal    *prometheus.CounterVec
	DispatchTotal   *prometheus.CounterVec
	DeadTotal       *prometheus.CounterVec
	DispatchLatency *prometheus.HistogramVec
	Pending         prometheus.Gauge
	Locked          prometheus.Gauge
}

type BusinessMetrics struct {
	ApprovalTransitions *prometheus.CounterVec
	EntitiesCreated     *prometheus.CounterVec
	CleanerDeleted      *prometheus.CounterVec
}

var httpMetrics = sync.OnceValue(func() *HTTPMetrics {
	return &HTTPMetrics{
		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
})

var outboxMetrics = sync.OnceValue(func() *OutboxMetrics {
	return &OutboxMetrics{
		EnqueueTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outbox",
			Name:      "enqueue_total",
			Help:      "Total number of outbox enqueue operations.",
		}, []string{"topic"}),
		DispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outbox",
			Name:      "dispatch_total",
			Help:      "Total number of outbox dispatch operations.",
		}, []string{"topic", "result"}),
		DeadTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outbox",
			Name:      "dead_total",
			Help:      "Total number of events that exhausted their attempts.",
		}, []string{"topic"}),
		DispatchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "outbox",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency distribution for outbox dispatch.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"topic", "result"}),
		Pending: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "outbox",
			Name:      "pending",
			Help:      "Current number of undelivered events.",
		}),
		Locked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "outbox",
			Name:      "locked",
			Help:      "Current number of claimed, undelivered events.",
		}),
	}
})

var businessMetrics = sync.OnceValue(func() *BusinessMetrics {
	return &BusinessMetrics{
		ApprovalTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impresa",
			Name:      "approval_transitions_total",
			Help:      "Approval state changes by record type and resulting status.",
		}, []string{"type", "status"}),
		EntitiesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impresa",
			Name:      "entities_created_total",
			Help:      "Owned entities created by kind and initial status.",
		}, []string{"kind", "status"}),
		CleanerDeleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impresa",
			Name:      "cleaner_deleted_total",
			Help:      "Rows removed by the retention cleaner.",
		}, []string{"table"}),
	}
})

func HTTP() *HTTPMetrics { return httpMetrics() }

func Outbox() *OutboxMetrics { return outboxMetrics() }

func Business() *BusinessMetrics { return businessMetrics() }

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
