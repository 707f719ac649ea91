// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fueltrack"

// Metrics owns a private registry so tests can create independent instances.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	entriesCreated    prometheus.Counter
	maintenanceResets prometheus.Counter
	notifications     *prometheus.CounterVec
	rateLimited       prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		entriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fuel_entries_created_total",
			Help:      "Fuel entries recorded.",
		}),
		maintenanceResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_resets_total",
			Help:      "Oil-change resets recorded.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications handed to the relay by kind and outcome.",
		}, []string{"kind", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.entriesCreated,
		m.maintenanceResets,
		m.notifications,
		m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request under the ServeMux
// pattern that matched it.
func (m *Metrics) ObserveRequest(method, pattern string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route := Route(pattern)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) EntryCreated() {
	if m != nil {
		m.entriesCreated.Inc()
	}
}

func (m *Metrics) MaintenanceReset() {
	if m != nil {
		m.maintenanceResets.Inc()
	}
}

// NotificationSent counts a relay attempt for kind; a non-nil err counts as failed.
func (m *Metrics) NotificationSent(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

// UnmatchedRoute labels requests no route pattern matched.
const UnmatchedRoute = "other"

// Route turns a ServeMux pattern into a route label:
// "GET /api/vehicles/{id}" becomes "/api/vehicles/{id}". An empty pattern
// means nothing matched and maps to UnmatchedRoute so arbitrary paths never
// create new series.
func Route(pattern string) string {
	if pattern == "" {
		return UnmatchedRoute
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
