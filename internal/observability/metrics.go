package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// weatherapi.com call rate per endpoint. Watch for: error vs success ratio.
	UpstreamCallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: p95 > 2s (upstream degradation).
	UpstreamCallDuration *prometheus.HistogramVec

	// Debounced autocomplete lookups that reached the upstream.
	CityLookupsTotal prometheus.Counter

	// Autocomplete lookups that failed and degraded to an empty candidate list.
	CityLookupFailuresTotal prometheus.Counter

	// Weather fetches by trigger (submit, select, geolocation, mount, detail).
	WeatherFetchesTotal *prometheus.CounterVec

	// Weather fetches that surfaced the inline error to the user.
	WeatherFetchFailuresTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of weatherapi.com calls",
		},
		[]string{"endpoint", "status"},
	)
	UpstreamCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "weatherapi.com latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
	CityLookupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cityLookupsTotal",
			Help: "Total number of debounced autocomplete lookups issued upstream",
		},
	)
	CityLookupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cityLookupFailuresTotal",
			Help: "Autocomplete lookups that failed and degraded to an empty list",
		},
	)
	WeatherFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherFetchesTotal",
			Help: "Weather fetches by trigger",
		},
		[]string{"trigger"},
	)
	WeatherFetchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherFetchFailuresTotal",
			Help: "Weather fetches that surfaced the inline error",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamCallDuration,
		CityLookupsTotal, CityLookupFailuresTotal,
		WeatherFetchesTotal, WeatherFetchFailuresTotal,
	)
}

// RecordWeatherFetch records one weather fetch attempt for the given trigger.
func RecordWeatherFetch(trigger string) {
	WeatherFetchesTotal.WithLabelValues(trigger).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
