// ABOUTME: Prometheus metrics for refreshes, dashboard state, and HTTP traffic
// ABOUTME: Owns a private registry served on /metrics

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/threshold"
)

const namespace = "virt_dashboard"

// Metrics is the set of collectors the backend updates.
type Metrics struct {
	registry *prometheus.Registry

	refreshes       *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	lastRefresh     prometheus.Gauge
	utilization     *prometheus.GaugeVec
	severity        *prometheus.GaugeVec
	inventory       *prometheus.GaugeVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers every collector, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refreshes_total",
				Help:      "Snapshot refreshes by source and result",
			},
			[]string{"source", "result"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Time to fetch one snapshot",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"source"},
		),
		lastRefresh: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_refresh_timestamp_seconds",
				Help:      "Collection time of the current snapshot",
			},
		),
		utilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "utilization_percent",
				Help:      "Global utilization percentage per resource",
			},
			[]string{"resource"},
		),
		severity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "utilization_severity",
				Help:      "Threshold severity per resource (0 normal, 1 warning, 2 error)",
			},
			[]string{"resource"},
		),
		inventory: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inventory_objects",
				Help:      "Inventory object counts per kind and status",
			},
			[]string{"kind", "status"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.refreshes,
		m.refreshDuration,
		m.lastRefresh,
		m.utilization,
		m.severity,
		m.inventory,
		m.requests,
		m.requestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRefresh records one fetch attempt.
func (m *Metrics) ObserveRefresh(source string, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.refreshes.WithLabelValues(source, result).Inc()
	m.refreshDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveSnapshot publishes the gauges derived from the current snapshot.
func (m *Metrics) ObserveSnapshot(s *snapshot.Snapshot) {
	m.lastRefresh.Set(float64(s.CollectedAt.Unix()))

	g := s.GlobalUtilization
	for resource, u := range map[string]snapshot.Utilization{
		"cpu":     g.CPU,
		"memory":  g.Memory,
		"storage": g.Storage,
	} {
		m.utilization.WithLabelValues(resource).Set(threshold.Percent(u.Used, u.Total))
		m.severity.WithLabelValues(resource).Set(float64(threshold.Classify(u.Used, u.Total, threshold.Utilization)))
	}

	m.inventory.Reset()
	inv := s.Inventory
	for kind, sc := range map[string]snapshot.StatusCount{
		"dc":      inv.DC,
		"cluster": inv.Cluster,
		"host":    inv.Host,
		"storage": inv.Storage,
		"volume":  inv.Volume,
		"vm":      inv.VM,
		"event":   inv.Event,
	} {
		m.inventory.WithLabelValues(kind, "total").Set(float64(sc.TotalCount))
		for _, st := range sc.Statuses {
			m.inventory.WithLabelValues(kind, st.Type).Set(float64(st.Count))
		}
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
