// Package metrics defines Prometheus metrics for the route server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orienteer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orienteer_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orienteer_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orienteer_search_duration_seconds",
			Help:    "Route query duration in seconds, origin insert and cleanup included",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	WalksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orienteer_walks_total",
			Help: "Greedy walks performed",
		},
	)

	CheckpointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orienteer_checkpoints_total",
			Help: "Candidate routes recorded by walks",
		},
	)

	BestItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orienteer_best_route_items",
			Help:    "Distinct items on the returned route",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		},
	)

	OriginCleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orienteer_origin_cleanup_failures_total",
			Help: "Queries whose transient origin node could not be removed",
		},
	)

	NodeCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orienteer_node_cache_requests_total",
			Help: "Node and edge cache lookups by result",
		},
		[]string{"result"},
	)

	NodeCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orienteer_graph_nodes",
			Help: "Nodes in the persisted graph index",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		SearchDuration, WalksTotal, CheckpointsTotal, BestItems,
		OriginCleanupFailures, NodeCacheRequests, NodeCount,
	)
}
