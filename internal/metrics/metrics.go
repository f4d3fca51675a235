// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DimensionResolutions counts resolver outcomes by media type
	DimensionResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framestitch_dimension_resolutions_total",
		Help: "Dimension resolutions by media type and outcome.",
	}, []string{"media_type", "outcome"})

	// StitchRequests counts calls to the stitching service by outcome
	StitchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framestitch_stitch_requests_total",
		Help: "Stitching service calls by outcome.",
	}, []string{"outcome"})

	StitchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "framestitch_stitch_duration_seconds",
		Help:    "Time spent waiting on the stitching service.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})

	// HistoryPushes counts snapshots captured across all sessions
	HistoryPushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framestitch_history_snapshots_total",
		Help: "Undo snapshots captured.",
	})

	Undos = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framestitch_undo_total",
		Help: "Undo operations that restored a snapshot.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "framestitch_active_sessions",
		Help: "Editing sessions currently held in memory.",
	})
)
