package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote Processing Metrics
var (
	// VotesTotal tracks upvote attempts by result
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_total",
			Help: "Total upvote attempts by result (admitted/cooldown/error)",
		},
		[]string{"result"},
	)

	// CooldownEntries tracks current entries in the in-memory cooldown tracker
	CooldownEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cooldown_entries",
			Help: "Current number of entries in the cooldown tracker",
		},
	)

	// CooldownEvictions tracks stale cooldown entries evicted
	CooldownEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cooldown_evictions_total",
			Help: "Total number of stale cooldown entries evicted",
		},
	)
)

// Listing Metrics
var (
	// ListingsCreated tracks new bot listings
	ListingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_created_total",
			Help: "Total number of bot listings created",
		},
	)

	// ListingsDeleted tracks removed bot listings
	ListingsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_deleted_total",
			Help: "Total number of bot listings deleted",
		},
	)
)

// Discord API Metrics
var (
	// DiscordAPIRequests tracks Discord API calls by endpoint and status
	DiscordAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_api_requests_total",
			Help: "Total Discord API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
)

// Database Metrics
var (
	// DBQueryDuration tracks query latency by query type
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration by query type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// DBErrorsTotal tracks failed queries by query type
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total database errors by query type",
		},
		[]string{"query"},
	)
)

// Redis Metrics
var (
	// RedisOpsTotal tracks Redis commands by operation and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by command and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis command latency by operation
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration by command",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks failed connection attempts
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total Redis connection errors",
		},
	)
)

// Build Information Metrics
var (
	// BuildInfo is a gauge that always returns 1, with build metadata as labels
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build information with version, commit, build_time, and go_version labels (value is always 1)",
		},
		[]string{"version", "commit", "build_time", "go_version"},
	)
)
