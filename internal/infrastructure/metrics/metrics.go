// Package metrics exposes prometheus instrumentation for the matching engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_cache_lookups_total",
			Help: "Recommendation cache lookups by outcome (hit, miss, stale, timeout)",
		},
		[]string{"outcome"},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_cache_invalidations_total",
			Help: "Requester-wide recommendation cache invalidations",
		},
	)

	ScoringPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_scoring_passes_total",
			Help: "Full candidate scoring passes by mode",
		},
		[]string{"mode"},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_scoring_duration_seconds",
			Help:    "Duration of a full scoring pass including candidate fetch",
			Buckets: prometheus.DefBuckets,
		},
	)

	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_candidate_pool_size",
			Help:    "Number of eligible candidates fetched per scoring pass",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 150, 200},
		},
	)
)

// RecordScoringPass records one completed scoring pass.
func RecordScoringPass(mode string, poolSize int, took time.Duration) {
	ScoringPasses.WithLabelValues(mode).Inc()
	ScoringDuration.Observe(took.Seconds())
	CandidatePoolSize.Observe(float64(poolSize))
}
