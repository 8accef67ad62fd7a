package treasury

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treasury_desk",
			Name:      "upstream_fetch_attempts_total",
			Help:      "Treasury CSV fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	upstreamFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "treasury_desk",
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Latency of a single treasury CSV fetch attempt",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)
