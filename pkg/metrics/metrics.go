package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts cache reads by outcome (hit|miss|expired|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuecal_cache_lookups_total",
			Help: "Issue cache lookups by outcome",
		},
		[]string{"result"},
	)

	// CacheStoreFailures counts failed cache reads and writes (get|put|prune).
	CacheStoreFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuecal_cache_store_failures_total",
			Help: "Issue cache storage failures",
		},
		[]string{"op"},
	)

	// CachedEvents reports the number of events written by the last refresh.
	CachedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "issuecal_cached_events",
			Help: "Calendar events produced by the most recent upstream refresh",
		},
	)

	// UpstreamRequests counts issue-list calls by outcome (success|error|timeout).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuecal_upstream_requests_total",
			Help: "Requests sent to the issue tracker API",
		},
		[]string{"result"},
	)

	// UpstreamLatency measures issue-list call latency.
	UpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "issuecal_upstream_latency_seconds",
			Help:    "Issue tracker API latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MaintenanceRuns counts cache maintenance runs by outcome (success|failure).
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "issuecal_maintenance_runs_total",
			Help: "Cache maintenance runs by outcome",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "issuecal_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
