package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so callers never need to check whether metrics are on.
type Metrics struct {
	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	flowInvocations *prometheus.CounterVec
	flowLatency     *prometheus.HistogramVec
	backendAttempts *prometheus.CounterVec
	schemaRetries   *prometheus.CounterVec
	bookmarks       *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers all collectors on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agenty_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agenty_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "agenty_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		flowInvocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agenty_flow_invocations_total",
			Help: "AI flow invocations by flow and outcome code.",
		}, []string{"flow", "outcome"}),
		flowLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agenty_flow_duration_seconds",
			Help:    "End-to-end AI flow latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"flow", "outcome"}),
		backendAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agenty_backend_attempts_total",
			Help: "Generative backend calls by engine and result.",
		}, []string{"engine", "result"}),
		schemaRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agenty_schema_retries_total",
			Help: "Corrective re-prompts after invalid or empty backend output.",
		}, []string{"prompt"}),
		bookmarks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "agenty_bookmarks_total",
			Help: "Insight bookmark attempts by store and result.",
		}, []string{"store", "result"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveFlow records one finished flow invocation. outcome is "ok" or an
// error code.
func (m *Metrics) ObserveFlow(flow, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	flow = orUnknown(flow)
	if outcome == "" {
		outcome = "ok"
	}
	m.flowInvocations.WithLabelValues(flow, outcome).Inc()
	m.flowLatency.WithLabelValues(flow, outcome).Observe(dur.Seconds())
}

func (m *Metrics) IncBackendAttempt(engine, result string) {
	if m == nil {
		return
	}
	m.backendAttempts.WithLabelValues(orUnknown(engine), orUnknown(result)).Inc()
}

func (m *Metrics) IncSchemaRetry(prompt string) {
	if m == nil {
		return
	}
	m.schemaRetries.WithLabelValues(orUnknown(prompt)).Inc()
}

func (m *Metrics) IncBookmark(store, result string) {
	if m == nil {
		return
	}
	m.bookmarks.WithLabelValues(orUnknown(store), orUnknown(result)).Inc()
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
