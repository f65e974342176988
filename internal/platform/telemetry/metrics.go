package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	flowTotal     *prometheus.CounterVec
	flowDuration  *prometheus.HistogramVec
	providerCalls *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		flowTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_flow_total",
				Help: "Total number of auth flow runs by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		flowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authgate_flow_duration_seconds",
				Help:    "Auth flow latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"flow"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_provider_calls_total",
				Help: "Total number of identity provider calls by operation and result",
			},
			[]string{"operation", "result"},
		),
	}

	registry.MustRegister(m.flowTotal, m.flowDuration, m.providerCalls)
	return m
}

func (m *Metrics) ObserveFlow(flow, outcome string, elapsed time.Duration) {
	m.flowTotal.WithLabelValues(flow, outcome).Inc()
	m.flowDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveProviderCall(operation, result string) {
	m.providerCalls.WithLabelValues(operation, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
