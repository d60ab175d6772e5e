package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_searches_total",
		Help: "Finished searches by result",
	}, []string{"result"}) // found, not_found, stale, error

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathfinder_search_duration_seconds",
		Help:    "Search wall time in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	})

	searchExpanded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathfinder_search_expanded_nodes",
		Help:    "Nodes expanded per search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	searchRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pathfinder_search_running",
		Help: "1 while a search is running",
	})

	watchersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pathfinder_watchers",
		Help: "Connected websocket watchers",
	})
)

func observeOutcome(o Outcome) {
	result := "not_found"
	switch {
	case o.Err != nil:
		result = "error"
	case o.Stale:
		result = "stale"
	case o.Found:
		result = "found"
	}
	searchesTotal.WithLabelValues(result).Inc()
	searchDuration.Observe(o.Duration.Seconds())
	searchExpanded.Observe(float64(o.Expanded))
}
