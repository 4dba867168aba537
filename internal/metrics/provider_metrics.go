// Package metrics defines data provider metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider counter vectors
var (
	ProviderCacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_cache_requests_total",
		Help:      "Provider cache lookups by method and result",
	}, []string{"method", "result"})
)

// Provider histogram vectors
var (
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of backing provider reads by source and method",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"source", "method"})
)

// RecordCacheHit records a provider cache hit.
func RecordCacheHit(method string) {
	ProviderCacheRequestsTotal.WithLabelValues(method, "hit").Inc()
}

// RecordCacheMiss records a provider cache miss.
func RecordCacheMiss(method string) {
	ProviderCacheRequestsTotal.WithLabelValues(method, "miss").Inc()
}

// RecordProviderRequest records the latency of a backing provider read.
func RecordProviderRequest(source, method string, durationSeconds float64) {
	ProviderRequestDuration.WithLabelValues(source, method).Observe(durationSeconds)
}
