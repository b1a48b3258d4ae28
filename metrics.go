package auth

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LoginResultSuccess  = "success"
	LoginResultRejected = "rejected"
	LoginResultError    = "error"

	AuthorizationAllowed = "allowed"
	AuthorizationDenied  = "denied"
)

// MetricsRecorder receives auth events from the authenticator, guards, and
// the error handler
type MetricsRecorder interface {
	RecordLogin(result string)
	RecordFailure(kind string, status int)
	RecordAuthorization(role, outcome string)
}

// NoopMetrics discards everything
type NoopMetrics struct{}

func (NoopMetrics) RecordLogin(string)                 {}
func (NoopMetrics) RecordFailure(string, int)          {}
func (NoopMetrics) RecordAuthorization(string, string) {}

// Collector is the Prometheus MetricsRecorder
type Collector struct {
	logins         *prometheus.CounterVec
	failures       *prometheus.CounterVec
	authorizations *prometheus.CounterVec
}

var _ MetricsRecorder = (*Collector)(nil)

// NewCollector creates the collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_auth_login_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_auth_failures_total",
			Help: "Failed requests by failure kind and HTTP status",
		}, []string{"kind", "status"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_auth_authorization_total",
			Help: "Role guard decisions by required role and outcome",
		}, []string{"role", "outcome"}),
	}

	reg.MustRegister(
		c.logins,
		c.failures,
		c.authorizations,
	)

	return c
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordFailure(kind string, status int) {
	c.failures.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}

func (c *Collector) RecordAuthorization(role, outcome string) {
	c.authorizations.WithLabelValues(NormalizeRole(role), outcome).Inc()
}

// MetricsHandler serves the gatherer for Prometheus scrapes
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
