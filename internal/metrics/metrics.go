package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation pipeline outcomes
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textvault",
			Subsystem: "ai",
			Name:      "generations_total",
			Help:      "Generation requests by template type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// Model calls, one per provider round trip
	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textvault",
			Subsystem: "ai",
			Name:      "model_calls_total",
			Help:      "Language model calls by provider, purpose and outcome",
		},
		[]string{"provider", "purpose", "outcome"},
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "textvault",
			Subsystem: "ai",
			Name:      "model_call_duration_seconds",
			Help:      "Language model call latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
		},
		[]string{"provider", "purpose"},
	)

	ModelTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textvault",
			Subsystem: "ai",
			Name:      "model_tokens_total",
			Help:      "Tokens reported by providers",
		},
		[]string{"provider", "direction"},
	)

	// HTTP surface
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code",
		},
		[]string{"method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "textvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// RecordGeneration counts one finished generation request.
func RecordGeneration(templateType, outcome string) {
	if templateType == "" {
		templateType = "unknown"
	}
	GenerationsTotal.WithLabelValues(templateType, outcome).Inc()
}

// RecordModelCall records the outcome, latency and token usage of one model call.
func RecordModelCall(provider, purpose, outcome string, durationSec float64, inputTokens, outputTokens int) {
	if provider == "" {
		provider = "unknown"
	}
	ModelCallsTotal.WithLabelValues(provider, purpose, outcome).Inc()
	ModelCallDuration.WithLabelValues(provider, purpose).Observe(durationSec)
	if inputTokens > 0 {
		ModelTokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		ModelTokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// RecordRequest records an HTTP request.
func RecordRequest(method string, status int, durationSec float64) {
	HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(durationSec)
}
