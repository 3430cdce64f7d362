// Package metrics exposes the engine's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilemap_tile_fetches_total",
		Help: "Total number of tile fetch attempts",
	})

	TileFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilemap_tile_fetch_failures_total",
		Help: "Total number of failed tile fetch attempts",
	})

	TileFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tilemap_tile_fetch_latency_seconds",
		Help:    "Latency of tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilemap_cache_hits_total",
		Help: "Total number of tile cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilemap_cache_misses_total",
		Help: "Total number of tile cache misses",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tilemap_queue_depth",
		Help: "Number of tile tasks waiting in the load queue",
	})

	PendingTiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tilemap_pending_tiles",
		Help: "Number of tiles queued or in flight",
	})
)
