// Package metrics exposes Prometheus collectors for HTTP traffic, logins and
// fleet certificate status.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

const namespace = "fleetcert"

// Metrics holds every collector registered by the application.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LoginAttempts *prometheus.CounterVec
	Certificates  *prometheus.GaugeVec
	FleetHealth   prometheus.Gauge
	FleetAlerts   prometheus.Gauge
	LastSweep     prometheus.Gauge
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result (success, failure, limited).",
		}, []string{"result"}),
		Certificates: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "certificates",
			Help:      "Certificates per status bucket at the last sweep.",
		}, []string{"bucket"}),
		FleetHealth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fleet_health_percent",
			Help:      "Percentage of certificates in the valid bucket at the last sweep.",
		}),
		FleetAlerts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fleet_alerts",
			Help:      "Expired or expiring certificates at the last sweep.",
		}),
		LastSweep: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed fleet sweep.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveFleet publishes a fleet snapshot.
func (m *Metrics) ObserveFleet(status model.FleetStatus) {
	for _, b := range model.Buckets {
		m.Certificates.WithLabelValues(string(b)).Set(float64(status.Counts[b]))
	}
	m.FleetHealth.Set(float64(status.Health))
	m.FleetAlerts.Set(float64(len(status.Alerts)))
	m.LastSweep.SetToCurrentTime()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveLogin counts a login attempt. result is one of success, failure or
// limited.
func (m *Metrics) ObserveLogin(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}
