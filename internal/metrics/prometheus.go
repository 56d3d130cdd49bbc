package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ClicksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_clicks_received_total",
			Help: "Total number of click events received",
		},
		[]string{"app_id"},
	)

	ClicksAllowed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_clicks_allowed_total",
			Help: "Total number of clicks that passed fraud scoring",
		},
	)

	ClicksBlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_clicks_blocked_total",
			Help: "Total number of clicks rejected as fraudulent",
		},
	)

	ClicksRateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_clicks_rate_limited_total",
			Help: "Total number of clicks rejected by the rate limiter",
		},
	)

	ExclusionsQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ads_exclusions_queued_total",
			Help: "Total number of ads-exclusion intents queued",
		},
	)

	ExclusionQueueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ads_exclusion_queue_size",
			Help: "Current depth of the exclusion propagation queue",
		},
	)

	ResponseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)
)

func init() {
	prometheus.MustRegister(ClicksReceived)
	prometheus.MustRegister(ClicksAllowed)
	prometheus.MustRegister(ClicksBlocked)
	prometheus.MustRegister(ClicksRateLimited)
	prometheus.MustRegister(ExclusionsQueued)
	prometheus.MustRegister(ExclusionQueueSize)
	prometheus.MustRegister(ResponseTime)
}
