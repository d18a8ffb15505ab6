package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts relay API requests by route and envelope outcome
	// ("data" or "errors").
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hibp_relay_requests_total",
		Help: "Relay API requests by route and outcome.",
	}, []string{"route", "outcome"})

	// UpstreamLatency tracks HIBP call durations by HTTP status
	// ("error" for transport failures).
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hibp_relay_upstream_duration_seconds",
		Help:    "Latency of upstream HIBP calls by status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
