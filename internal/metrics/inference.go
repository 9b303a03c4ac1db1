package metrics

import "github.com/prometheus/client_golang/prometheus"

// Inference kinds for the external model calls.
const (
	KindEmbedding = "embedding"
	KindIntent    = "intent"
)

// Inference and search Prometheus metrics.
var (
	InferenceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruchi",
			Name:      "inference_requests_total",
			Help:      "Total number of external inference requests",
		},
		[]string{"kind", "model", "status"},
	)

	InferenceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ruchi",
			Name:      "inference_request_duration_seconds",
			Help:      "External inference request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind", "model"},
	)

	InferenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruchi",
			Name:      "inference_errors_total",
			Help:      "Total inference errors",
		},
		[]string{"kind", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruchi",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ruchi",
			Name:      "searches_total",
			Help:      "Total search pipeline runs",
		},
		[]string{"mode", "status"},
	)
)

var inferenceMetricsRegistered bool

// RegisterInferenceMetrics registers inference and search metrics. Must be called once from main.
func RegisterInferenceMetrics() {
	if inferenceMetricsRegistered {
		return
	}
	prometheus.MustRegister(InferenceRequestsTotal)
	prometheus.MustRegister(InferenceRequestDuration)
	prometheus.MustRegister(InferenceErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(SearchesTotal)
	inferenceMetricsRegistered = true
}
