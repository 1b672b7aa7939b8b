package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notare"

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

type registry struct {
	reg *prometheus.Registry

	providerRequests  *prometheus.CounterVec
	providerLatency   *prometheus.HistogramVec
	connectorRequests *prometheus.CounterVec
	connectorLatency  *prometheus.HistogramVec
	stageLatency      *prometheus.HistogramVec
	validations       *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
}

func newRegistry() *registry {
	r := &registry{
		reg: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total outline provider requests.",
		}, []string{"provider", "operation", "status", "error_category"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Outline provider request duration in seconds.",
			Buckets:   defaultDurationBuckets,
		}, []string{"provider", "operation", "status", "error_category"}),
		connectorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connector_requests_total",
			Help:      "Total document connector requests.",
		}, []string{"connector", "operation", "status", "error_code"}),
		connectorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connector_request_duration_seconds",
			Help:      "Document connector request duration in seconds.",
			Buckets:   defaultDurationBuckets,
		}, []string{"connector", "operation", "status", "error_code"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of each deck pipeline stage in seconds.",
			Buckets:   defaultDurationBuckets,
		}, []string{"stage", "status"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_validations_total",
			Help:      "Template validations by summary status.",
		}, []string{"summary"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   defaultDurationBuckets,
		}, []string{"method", "route"}),
	}
	r.reg.MustRegister(
		r.providerRequests, r.providerLatency,
		r.connectorRequests, r.connectorLatency,
		r.stageLatency, r.validations,
		r.httpRequests, r.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

var (
	mu             sync.RWMutex
	globalRegistry = newRegistry()
)

func current() *registry {
	mu.RLock()
	defer mu.RUnlock()
	return globalRegistry
}

func RecordProviderCall(provider string, operation string, status string, errorCategory string, duration time.Duration) {
	r := current()
	r.providerRequests.WithLabelValues(provider, operation, status, errorCategory).Inc()
	r.providerLatency.WithLabelValues(provider, operation, status, errorCategory).Observe(duration.Seconds())
}

func RecordConnectorCall(connector string, operation string, status string, errorCode string, duration time.Duration) {
	r := current()
	r.connectorRequests.WithLabelValues(connector, operation, status, errorCode).Inc()
	r.connectorLatency.WithLabelValues(connector, operation, status, errorCode).Observe(duration.Seconds())
}

// RecordStage observes one pipeline stage.
func RecordStage(stage string, status string, duration time.Duration) {
	current().stageLatency.WithLabelValues(stage, status).Observe(duration.Seconds())
}

func RecordTemplateValidation(summary string) {
	current().validations.WithLabelValues(summary).Inc()
}

func RecordHTTPRequest(method string, route string, status string, duration time.Duration) {
	r := current()
	r.httpRequests.WithLabelValues(method, route, status).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		promhttp.HandlerFor(current().reg, promhttp.HandlerOpts{}).ServeHTTP(w, req)
	})
}

// Gatherer exposes the registry to tests and embedders.
func Gatherer() prometheus.Gatherer {
	return current().reg
}

func ResetForTests() {
	mu.Lock()
	defer mu.Unlock()
	globalRegistry = newRegistry()
}
