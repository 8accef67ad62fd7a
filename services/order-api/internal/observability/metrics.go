package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	YieldCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treasury_desk",
			Name:      "yield_cache_lookups_total",
			Help:      "Year document lookups by freshness: fresh, stale, miss",
		},
		[]string{"result"},
	)

	YieldRevalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treasury_desk",
			Name:      "yield_revalidations_total",
			Help:      "Background refreshes of stale year documents by outcome",
		},
		[]string{"outcome"},
	)

	OrdersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treasury_desk",
			Name:      "orders_submitted_total",
			Help:      "Order submissions by outcome",
		},
		[]string{"outcome"},
	)

	OrderEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treasury_desk",
			Name:      "order_events_published_total",
			Help:      "Order events handed to a sink by sink and outcome",
		},
		[]string{"sink", "outcome"},
	)

	StreamSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "treasury_desk",
			Name:      "order_stream_subscribers",
			Help:      "Connected blotter stream clients",
		},
	)
)
