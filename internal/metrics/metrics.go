// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortener_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SessionLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_session_logins_total",
			Help: "Total number of login attempts by result.",
		},
		[]string{"result"},
	)

	SessionAuthenticationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_session_authentications_total",
			Help: "Total number of cookie authentications by status.",
		},
		[]string{"status"},
	)

	RedirectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_redirects_total",
			Help: "Total number of short links resolved.",
		},
	)
)

// MustRegister registers every collector with reg. It panics on duplicate
// registration, so call it once per process.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		SessionLoginsTotal,
		SessionAuthenticationsTotal,
		RedirectsTotal,
	)
}
