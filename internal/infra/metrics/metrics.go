// Package metrics exposes Prometheus counters for entitlement and identity traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what handlers and the identity client report to.
type Recorder interface {
	RecordAdminCheck(granted bool)
	RecordReservation(plan, outcome string)
	ObserveIdentityRequest(operation, outcome string, elapsed time.Duration)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	adminChecks      *prometheus.CounterVec
	reservations     *prometheus.CounterVec
	identityRequests *prometheus.CounterVec
	identityLatency  *prometheus.HistogramVec
}

// NewCollector registers the service metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		adminChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediahub_admin_checks_total",
			Help: "Admin dashboard authorization checks by result.",
		}, []string{"result"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediahub_download_reservations_total",
			Help: "Download reservations by plan and outcome.",
		}, []string{"plan", "outcome"}),
		identityRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediahub_identity_requests_total",
			Help: "Identity provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		identityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediahub_identity_request_duration_seconds",
			Help:    "Identity provider call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(c.adminChecks, c.reservations, c.identityRequests, c.identityLatency)
	return c
}

func (c *Collector) RecordAdminCheck(granted bool) {
	result := "denied"
	if granted {
		result = "granted"
	}
	c.adminChecks.WithLabelValues(result).Inc()
}

func (c *Collector) RecordReservation(plan, outcome string) {
	c.reservations.WithLabelValues(plan, outcome).Inc()
}

func (c *Collector) ObserveIdentityRequest(operation, outcome string, elapsed time.Duration) {
	c.identityRequests.WithLabelValues(operation, outcome).Inc()
	c.identityLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordAdminCheck(bool)                                {}
func (Nop) RecordReservation(string, string)                     {}
func (Nop) ObserveIdentityRequest(string, string, time.Duration) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
