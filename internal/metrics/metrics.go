package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "ridepool"

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route pattern, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	JobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "jobs_submitted_total", Help: "Optimization jobs accepted."},
	)
	// JobsCompleted counts jobs reaching a terminal status (DONE or ERROR)
	JobsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "jobs_completed_total", Help: "Optimization jobs by terminal status."},
		[]string{"status"},
	)
	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "jobs_in_flight", Help: "Jobs queued or running."},
	)
	JobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "job_duration_seconds", Help: "Pipeline run time in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60}},
	)
	JobConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "job_conflicts_total", Help: "Conflicts found in completed jobs by kind."},
		[]string{"kind"},
	)
	AnnealIterations = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "anneal_iterations_total", Help: "Simulated-annealing steps executed."},
	)
	AnnealAcceptedWorse = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "anneal_accepted_worse_total", Help: "Uphill moves accepted by the Metropolis criterion."},
	)
	UnassignedRiders = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "unassigned_riders_total", Help: "Riders no vehicle could take."},
	)

	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// WebhookLatency tracks webhook delivery latencies in milliseconds
	WebhookLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers all collectors on Registry. Safe to call more
// than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(
			HTTPRequests,
			HTTPDuration,
			JobsSubmitted,
			JobsCompleted,
			JobsInFlight,
			JobDuration,
			JobConflicts,
			AnnealIterations,
			AnnealAcceptedWorse,
			UnassignedRiders,
			WebhookDeliveries,
			WebhookLatency,
		)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
