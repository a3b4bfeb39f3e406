package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcana_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arcana_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	InterpretationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcana_interpretations_total",
			Help: "Total number of interpretations generated.",
		},
		[]string{"spread_type"},
	)

	QuotaDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcana_quota_denials_total",
			Help: "Total number of requests denied by the daily quota.",
		},
		[]string{"tier"},
	)

	QuotaStoreFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arcana_quota_store_failures_total",
			Help: "Total number of counter store failures absorbed by fail-open.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		InterpretationsTotal,
		QuotaDenials,
		QuotaStoreFailures,
	)
}
