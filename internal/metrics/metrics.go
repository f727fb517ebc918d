// Package metrics exposes live counters for a stress run in Prometheus
// format, for watching a long run from the outside.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operations issued during the stress phase.
type Metrics struct {
	registry *prometheus.Registry
	ops      *prometheus.CounterVec
	latency  prometheus.Histogram
}

// New creates an isolated metrics set with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cachebench_ops_total",
			Help: "Workload operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cachebench_op_latency_seconds",
			Help:    "Latency of successful workload operations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
	}
	m.registry.MustRegister(m.ops, m.latency)
	return m
}

// RecordSuccess counts one successful operation and its latency.
func (m *Metrics) RecordSuccess(op string, d time.Duration) {
	m.ops.WithLabelValues(op, "ok").Inc()
	m.latency.Observe(d.Seconds())
}

// RecordFailure counts one failed operation.
func (m *Metrics) RecordFailure(op string) {
	m.ops.WithLabelValues(op, "error").Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
