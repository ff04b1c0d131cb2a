// Package metrics defines Prometheus instrumentation for the RAG pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "know",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"backend", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "know",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "know",
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"backend", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "know",
			Name:      "generation_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	BackendProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "know",
			Name:      "backend_probes_total",
			Help:      "Backend availability probe outcomes",
		},
		[]string{"backend", "outcome"}, // "available" / "unavailable"
	)

	ChunksIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "know",
			Name:      "chunks_ingested_total",
			Help:      "Total document chunks stored in the vector store",
		},
	)

	FilesSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "know",
			Name:      "files_skipped_total",
			Help:      "Files skipped during ingestion due to per-file failures",
		},
	)
)

var registered bool

// Register registers pipeline metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(BackendProbesTotal)
	prometheus.MustRegister(ChunksIngestedTotal)
	prometheus.MustRegister(FilesSkippedTotal)
	registered = true
}
