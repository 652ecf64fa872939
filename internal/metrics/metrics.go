package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncPasses tracks completed sync passes by result
	SyncPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbosync_passes_total",
			Help: "Total number of sync passes",
		},
		[]string{"result"},
	)

	// SyncPassDuration tracks how long a full sync pass takes
	SyncPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fbosync_pass_duration_seconds",
			Help:    "Sync pass duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// OrdersCreated tracks orders for which documents were created
	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fbosync_orders_created_total",
			Help: "Total number of orders with documents created",
		},
	)

	// OrdersSkipped tracks orders skipped per reason
	OrdersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbosync_orders_skipped_total",
			Help: "Total number of orders skipped",
		},
		[]string{"reason"},
	)

	// OrdersFailed tracks orders that failed to process
	OrdersFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbosync_orders_failed_total",
			Help: "Total number of orders that failed to process",
		},
		[]string{"reason"},
	)

	// MemorySize tracks the number of orders held in sync memory
	MemorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbosync_memory_orders",
			Help: "Number of orders tracked in sync memory",
		},
	)

	// HTTPRequests tracks requests per API and method
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbosync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"api", "method"},
	)

	// HTTPErrors tracks failed requests per API and method
	HTTPErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbosync_http_errors_total",
			Help: "Total number of failed HTTP requests",
		},
		[]string{"api", "method"},
	)

	// HTTPLatency tracks request latency per API and method
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fbosync_http_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"api", "method"},
	)

	// ResolverLookups tracks catalog resolutions by outcome
	ResolverLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbosync_resolver_lookups_total",
			Help: "Total number of catalog lookups",
		},
		[]string{"outcome"},
	)

	// ResolverCacheSize tracks entries held in the resolver cache
	ResolverCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fbosync_resolver_cache_entries",
			Help: "Number of entries in the resolver cache",
		},
	)
)
