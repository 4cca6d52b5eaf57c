package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_cache_hits_total",
			Help: "Cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_cache_misses_total",
			Help: "Cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_cache_evictions_total",
			Help: "Cache evictions",
		},
		[]string{"cache"},
	)

	// Lookups counts external calls by service and outcome
	// (ok, error, unconfigured, cached).
	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_external_lookups_total",
			Help: "External lookups by service and outcome",
		},
		[]string{"service", "outcome"},
	)

	Verdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkguard_review_verdicts_total",
			Help: "Review verdicts",
		},
		[]string{"verdict"},
	)

	RedirectHops = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "linkguard_redirect_hops",
			Help:    "Redirect hops followed per resolution",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7},
		},
	)

	GateShortCircuits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linkguard_gate_short_circuits_total",
			Help: "Links allowed by the fast gate without a full review",
		},
	)
)
