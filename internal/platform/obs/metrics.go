package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for Calculations.
const (
	OutcomeMatched   = "matched"
	OutcomeNoRule    = "no_rule"
	OutcomeDisabled  = "disabled"
	OutcomeError     = "error"
	OutcomeInvalid   = "invalid"
	CacheResultHit   = "hit"
	CacheResultMiss  = "miss"
	CacheResultError = "error"
)

var (
	Calculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eta_calculations_total",
			Help: "ETA calculations by surface and outcome",
		},
		[]string{"surface", "outcome"},
	)

	SnapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eta_snapshot_cache_total",
			Help: "Snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	SkippedRules = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eta_skipped_rules_total",
			Help: "Rules skipped while building snapshots because their data could not be decoded",
		},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route", "status"},
	)
)
