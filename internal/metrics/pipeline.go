package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics: embedding, ingestion, and chat completion.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campuskb",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campuskb",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campuskb",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campuskb",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campuskb",
			Name:      "ingest_documents_total",
			Help:      "Documents ingested by outcome",
		},
		[]string{"outcome"}, // "processed" / "failed"
	)

	IngestChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campuskb",
			Name:      "ingest_chunks_total",
			Help:      "Chunks persisted during ingestion",
		},
		[]string{"embedded"}, // "yes" / "no"
	)

	CompletionAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campuskb",
			Name:      "completion_attempts_total",
			Help:      "Completion attempts per model",
		},
		[]string{"model", "status"}, // status: "success" / "error" / "unusable"
	)

	CompletionExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "campuskb",
			Name:      "completion_exhausted_total",
			Help:      "Chat turns where every configured model failed",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers the pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(CompletionAttemptsTotal)
	prometheus.MustRegister(CompletionExhaustedTotal)
	pipelineMetricsRegistered = true
}
