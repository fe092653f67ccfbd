// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Because
// the API is polling-driven, request volume scales with session count, so
// label cardinality is kept to method, registered route, and status. The
// registered route (e.g. /api/v1/calls) is used rather than the raw URL so
// query-dispatched operations do not explode the label space.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path, and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records request duration in seconds by method and route path.
	// Status is omitted to keep histogram cardinality lower.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInFlight tracks the number of requests currently being served.
	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	// voiceClipBytes observes the payload size of accepted voice clips.
	voiceClipBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voice_clip_bytes",
			Help:    "Size in bytes of voice clips accepted by the relay.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInFlight, voiceClipBytes)
}

// Metrics instruments every request with count, latency, and in-flight
// gauges. Install it once, before the routes.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()

		c.Next()

		httpInFlight.Dec()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveClipSize records the size of an accepted voice clip. Called by the
// voice handler after a successful post.
func ObserveClipSize(n int) {
	voiceClipBytes.Observe(float64(n))
}
