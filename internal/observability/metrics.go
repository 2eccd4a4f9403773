package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTPRequests counts handled requests by chi route pattern.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "vacation", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vacation", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// UpstreamRequests counts calls to geocoding, weather, countries and rates services.
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "vacation", Name: "upstream_requests_total", Help: "Outbound requests."},
		[]string{"service", "status"},
	)
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vacation", Name: "upstream_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)

	// Plans counts itinerary outcomes: ok, not_found, upstream, malformed, data_access, error.
	Plans = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "vacation", Name: "plans_total", Help: "Itinerary requests by outcome."},
		[]string{"outcome"},
	)
)

func init() {
	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		HTTPRequests, HTTPLatency,
		UpstreamRequests, UpstreamLatency,
		Plans,
	)
}

// Handler serves application and runtime metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveUpstream(service, status string, dur time.Duration) {
	UpstreamRequests.WithLabelValues(service, status).Inc()
	UpstreamLatency.WithLabelValues(service).Observe(dur.Seconds())
}

func ObservePlan(outcome string) {
	Plans.WithLabelValues(outcome).Inc()
}

// StatusLabel buckets an upstream HTTP status code for metric labels.
func StatusLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "success"
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code >= 400 && code < 500:
		return "client_error"
	case code >= 500:
		return "server_error"
	}
	return "error"
}
