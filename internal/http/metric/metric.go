package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "product_inventory"

// Metrics holds the HTTP server collectors.
type Metrics struct {
	InflightRequests prometheus.Gauge
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ResponseSize     *prometheus.HistogramVec
}

// New creates the HTTP collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InflightRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Number of requests currently being served.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of served requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Response body size by method and route.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.InflightRequests, m.RequestsTotal, m.RequestDuration, m.ResponseSize)

	return m
}

// Observe records one served request.
func (m *Metrics) Observe(method, route string, status int, duration time.Duration, bytes int) {
	statusLabel := strconv.Itoa(status)

	m.RequestsTotal.WithLabelValues(method, route, statusLabel).Inc()
	m.RequestDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, route).Observe(float64(bytes))
}
