// Package metrics provides Prometheus metrics for the scene battle service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Match Metrics - What really matters for a ranking arena
	pairsServed    *prometheus.CounterVec
	matchesDecided *prometheus.CounterVec
	ratingWrites   prometheus.Counter
	ratingErrors   prometheus.Counter
	ratingLatency  prometheus.Histogram

	// Cache Metrics - Two-tier scene cache behavior
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	cacheStaleServes  *prometheus.CounterVec
	cacheRefreshes    *prometheus.CounterVec
	cacheRefreshDrops prometheus.Counter
	cacheEntryScenes  *prometheus.GaugeVec
	persistTierErrors prometheus.Counter

	// Pool Metrics - Sampling pool progress
	poolCycles      prometheus.Counter
	poolExhaustions prometheus.Counter
	poolRemaining   prometheus.Gauge

	// Gateway Metrics - Media server calls
	gatewayCalls   *prometheus.CounterVec
	gatewayErrors  *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
	breakerState   prometheus.Gauge

	// Writer Metrics - Async rating write queue
	writerQueueSize     prometheus.Gauge
	writerQueueCapacity prometheus.Gauge
	pendingWrites       prometheus.Gauge

	// Session Metrics
	sessionSaves  prometheus.Counter
	sessionLoads  prometheus.Counter
	sessionErrors prometheus.Counter

	// Library Metrics
	scenesTotal prometheus.Gauge
	scenesRated prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stash_battle",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Match Metrics
	m.pairsServed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "pairs_served_total",
			Help:      "Total number of pairs served by mode and turn status",
		},
		[]string{"mode", "status"},
	)

	m.matchesDecided = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "matches_decided_total",
			Help:      "Total number of decided matches by mode and winning side",
		},
		[]string{"mode", "side"},
	)

	m.ratingWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_writes_total",
		Help:      "Total number of rating writes pushed to the media server",
	})

	m.ratingErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_write_errors_total",
		Help:      "Total number of failed rating writes (optimistic value kept)",
	})

	m.ratingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_write_latency_milliseconds",
		Help:      "Histogram of rating write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Cache Metrics
	m.cacheHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits by bucket",
		},
		[]string{"bucket"},
	)

	m.cacheMisses = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses by bucket (blocking fetch)",
		},
		[]string{"bucket"},
	)

	m.cacheStaleServes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_stale_serves_total",
			Help:      "Total number of stale entries served while revalidating",
		},
		[]string{"bucket"},
	)

	m.cacheRefreshes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_refreshes_total",
			Help:      "Total number of background refresh commits by bucket",
		},
		[]string{"bucket"},
	)

	m.cacheRefreshDrops = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_refresh_drops_total",
		Help:      "Total number of background refreshes dropped by stale-write rejection",
	})

	m.cacheEntryScenes = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cache_entry_scenes",
			Help:      "Number of scenes held by each cache bucket",
		},
		[]string{"bucket"},
	)

	m.persistTierErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_tier_errors_total",
		Help:      "Total number of persistent tier failures (degraded to memory-only)",
	})

	// Pool Metrics
	m.poolCycles = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_cycles_total",
		Help:      "Total number of completed sampling pool cycles",
	})

	m.poolExhaustions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_exhaustions_total",
		Help:      "Total number of times the pool came up empty",
	})

	m.poolRemaining = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pool_remaining",
		Help:      "Scenes remaining in the current pool cycle",
	})

	// Gateway Metrics
	m.gatewayCalls = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "gateway_calls_total",
			Help:      "Total number of media server calls by operation",
		},
		[]string{"op"},
	)

	m.gatewayErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "gateway_errors_total",
			Help:      "Total number of failed media server calls by operation",
		},
		[]string{"op"},
	)

	m.gatewayLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "gateway_latency_milliseconds",
			Help:      "Media server call latency in milliseconds by operation",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.breakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "gateway_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	})

	// Writer Metrics
	m.writerQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writer_queue_size",
		Help:      "Current size of the async rating write queue",
	})

	m.writerQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "writer_queue_capacity",
		Help:      "Maximum capacity of the async rating write queue",
	})

	m.pendingWrites = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_writes",
		Help:      "Number of rating writes currently in flight",
	})

	// Session Metrics
	m.sessionSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_saves_total",
		Help:      "Total number of session state saves",
	})

	m.sessionLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_loads_total",
		Help:      "Total number of session state loads",
	})

	m.sessionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_errors_total",
		Help:      "Total number of session store errors",
	})

	// Library Metrics
	m.scenesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scenes_total",
		Help:      "Total number of scenes in the unfiltered library view",
	})

	m.scenesRated = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scenes_rated",
		Help:      "Number of scenes carrying a rating",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Match Metrics Functions.

// RecordPairServed increments the served pairs counter for a mode and status.
func RecordPairServed(mode, status string) {
	globalManager.pairsServed.WithLabelValues(mode, status).Inc()
}

// RecordMatchDecided increments the decided matches counter for a mode and side.
func RecordMatchDecided(mode, side string) {
	globalManager.matchesDecided.WithLabelValues(mode, side).Inc()
}

// RecordRatingWrite increments the rating writes counter.
func RecordRatingWrite() {
	globalManager.ratingWrites.Inc()
}

// RecordRatingWriteError increments the failed rating writes counter.
func RecordRatingWriteError() {
	globalManager.ratingErrors.Inc()
}

// RecordRatingWriteLatency records rating write latency in milliseconds.
func RecordRatingWriteLatency(latencyMs float64) {
	globalManager.ratingLatency.Observe(latencyMs)
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter for a bucket.
func RecordCacheHit(bucket string) {
	globalManager.cacheHits.WithLabelValues(bucket).Inc()
}

// RecordCacheMiss increments the cache miss counter for a bucket.
func RecordCacheMiss(bucket string) {
	globalManager.cacheMisses.WithLabelValues(bucket).Inc()
}

// RecordCacheStaleServe increments the stale-serve counter for a bucket.
func RecordCacheStaleServe(bucket string) {
	globalManager.cacheStaleServes.WithLabelValues(bucket).Inc()
}

// RecordCacheRefresh increments the background refresh counter for a bucket.
func RecordCacheRefresh(bucket string) {
	globalManager.cacheRefreshes.WithLabelValues(bucket).Inc()
}

// RecordCacheRefreshDrop increments the stale-write rejection counter.
func RecordCacheRefreshDrop() {
	globalManager.cacheRefreshDrops.Inc()
}

// UpdateCacheEntryScenes sets the scene count held by a cache bucket.
func UpdateCacheEntryScenes(bucket string, count int) {
	globalManager.cacheEntryScenes.WithLabelValues(bucket).Set(float64(count))
}

// RecordPersistTierError increments the persistent tier failure counter.
func RecordPersistTierError() {
	globalManager.persistTierErrors.Inc()
}

// Pool Metrics Functions.

// RecordPoolCycle increments the completed pool cycles counter.
func RecordPoolCycle() {
	globalManager.poolCycles.Inc()
}

// RecordPoolExhaustion increments the empty-pool counter.
func RecordPoolExhaustion() {
	globalManager.poolExhaustions.Inc()
}

// UpdatePoolRemaining sets the scenes remaining in the current cycle.
func UpdatePoolRemaining(count int) {
	globalManager.poolRemaining.Set(float64(count))
}

// Gateway Metrics Functions.

// RecordGatewayCall increments the gateway call counter for an operation.
func RecordGatewayCall(op string) {
	globalManager.gatewayCalls.WithLabelValues(op).Inc()
}

// RecordGatewayError increments the gateway error counter for an operation.
func RecordGatewayError(op string) {
	globalManager.gatewayErrors.WithLabelValues(op).Inc()
}

// RecordGatewayLatency records gateway call latency in milliseconds.
func RecordGatewayLatency(op string, latencyMs float64) {
	globalManager.gatewayLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateBreakerState sets the circuit breaker state gauge.
func UpdateBreakerState(state float64) {
	globalManager.breakerState.Set(state)
}

// Writer Metrics Functions.

// UpdateWriterQueueSize sets the current write queue size.
func UpdateWriterQueueSize(size int) {
	globalManager.writerQueueSize.Set(float64(size))
}

// UpdateWriterQueueCapacity sets the maximum write queue capacity.
func UpdateWriterQueueCapacity(capacity int) {
	globalManager.writerQueueCapacity.Set(float64(capacity))
}

// UpdatePendingWrites sets the number of in-flight rating writes.
func UpdatePendingWrites(count int) {
	globalManager.pendingWrites.Set(float64(count))
}

// Session Metrics Functions.

// RecordSessionSave increments the session save counter.
func RecordSessionSave() {
	globalManager.sessionSaves.Inc()
}

// RecordSessionLoad increments the session load counter.
func RecordSessionLoad() {
	globalManager.sessionLoads.Inc()
}

// RecordSessionError increments the session store error counter.
func RecordSessionError() {
	globalManager.sessionErrors.Inc()
}

// Library Metrics Functions.

// UpdateScenesTotal sets the total scene count.
func UpdateScenesTotal(count int) {
	globalManager.scenesTotal.Set(float64(count))
}

// UpdateScenesRated sets the rated scene count.
func UpdateScenesRated(count int) {
	globalManager.scenesRated.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
