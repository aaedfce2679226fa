package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_sessions_active",
		Help: "Number of shopper sessions held in memory.",
	})

	sessionsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_sessions_evicted_total",
		Help: "Total number of sessions removed from memory, by reason.",
	}, []string{"reason"})

	checkoutMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_mutations_total",
		Help: "Total number of checkout mutations, by operation.",
	}, []string{"op"})

	snapshotSaveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_session_snapshot_errors_total",
		Help: "Total number of session snapshots that failed to save.",
	})

	listingFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_listing_fallbacks_total",
		Help: "Total number of listing requests answered with the previously displayed page.",
	})
)
