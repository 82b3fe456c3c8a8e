package sliceview

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	visibleSourceRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sliceview_visible_source_recomputes",
		Help: "The number of visible-source index rebuilds.",
	})

	visibleSourceRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sliceview_visible_source_recompute_duration_seconds",
		Help:    "The time spent rebuilding the visible-source index.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
	})

	visibleLayoutCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sliceview_visible_layouts",
		Help: "The number of distinct chunk layouts in the visible set.",
	})

	visibleChunksEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sliceview_visible_chunks_emitted",
		Help: "The number of chunk cells emitted to visibility callbacks.",
	})
)
