package services

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrumsnek_request_total",
			Help: "Total HTTP requests handled by the service",
		},
		[]string{"route"},
	)

	requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spectrumsnek_request_errors_total",
			Help: "HTTP requests that ended in an error status",
		},
		[]string{"route"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spectrumsnek_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	toolsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spectrumsnek_tools_running",
			Help: "Number of tools currently running",
		},
	)
)

// Local counters back the healthz summary; the prometheus client offers no
// cheap read-back of counter vectors.
var (
	totalRequests int64
	totalErrors   int64
)

func init() {
	prometheus.MustRegister(requestCount)
	prometheus.MustRegister(requestErrors)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(toolsRunning)
}

func IncrementRequestCount(route string) {
	requestCount.WithLabelValues(route).Inc()
	atomic.AddInt64(&totalRequests, 1)
}

func IncrementErrorCount(route string) {
	requestErrors.WithLabelValues(route).Inc()
	atomic.AddInt64(&totalErrors, 1)
}

func RecordRequestDuration(route string, seconds float64) {
	requestDuration.WithLabelValues(route).Observe(seconds)
}

func SetToolsRunning(n int) {
	toolsRunning.Set(float64(n))
}

func GetTotalRequestCount() int64 {
	return atomic.LoadInt64(&totalRequests)
}

func GetTotalErrorCount() int64 {
	return atomic.LoadInt64(&totalErrors)
}
