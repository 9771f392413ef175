// Package metrics defines the Prometheus collectors for embedding and search.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxa"

// Embedding metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"backend", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"},
	)

	ModelInitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_model_init_total",
			Help:      "Embedding model initialization attempts",
		},
		[]string{"backend", "status"},
	)
)

// Search metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of ranking engine searches",
		},
		[]string{"status"}, // "ok" / "empty" / "unavailable" / "error"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Ranking engine search duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Number of candidates embedded per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results above the relevance floor per search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with reg. Calls after the first are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			ModelInitTotal,
			SearchRequestsTotal,
			SearchDuration,
			SearchCandidates,
			SearchResults,
		)
	})
}
