// Package metrics holds the Prometheus collectors for the scan pipeline and
// the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrifter_scans_total",
			Help: "Number of completed and stored scans, by whether any stage degraded.",
		},
		[]string{"degraded"},
	)

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "thrifter_scan_duration_seconds",
		Help:    "Wall time of a full pipeline run.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	})

	stageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrifter_stage_fallbacks_total",
			Help: "Number of times a pipeline stage substituted its fallback result.",
		},
		[]string{"stage"},
	)

	llmTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrifter_llm_tokens_total",
			Help: "Tokens consumed by generation calls.",
		},
		[]string{"model", "direction"},
	)

	visionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrifter_vision_cache_lookups_total",
			Help: "Vision annotation cache lookups by result.",
		},
		[]string{"result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrifter_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thrifter_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Stage labels.
const (
	StageVision    = "vision"
	StageSearch    = "search"
	StageAppraisal = "appraisal"
)

// StageFallback records that stage used its fallback result.
func StageFallback(stage string) {
	stageFallbacks.WithLabelValues(stage).Inc()
}

// ObserveScan records a completed pipeline run.
func ObserveScan(elapsed time.Duration, degraded bool) {
	scansTotal.WithLabelValues(strconv.FormatBool(degraded)).Inc()
	scanDuration.Observe(elapsed.Seconds())
}

// LLMTokens records token usage for one generation call.
func LLMTokens(model string, input, output int64) {
	llmTokens.WithLabelValues(model, "input").Add(float64(input))
	llmTokens.WithLabelValues(model, "output").Add(float64(output))
}

// VisionCacheHit and VisionCacheMiss count annotation cache lookups.
func VisionCacheHit()  { visionCacheLookups.WithLabelValues("hit").Inc() }
func VisionCacheMiss() { visionCacheLookups.WithLabelValues("miss").Inc() }

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
