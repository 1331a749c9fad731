package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a plain-number view of the hot counters, served on the
// status endpoint for dashboards that do not scrape Prometheus.
type MetricsSnapshot struct {
	Requests         int64   `json:"requests"`
	CacheHits        int64   `json:"cache_hits"`
	CacheMisses      int64   `json:"cache_misses"`
	CacheHitRatio    float64 `json:"cache_hit_ratio"`
	CommandsApplied  int64   `json:"commands_applied"`
	CommandsFailed   int64   `json:"commands_failed"`
	AssistantCalls   int64   `json:"assistant_calls"`
	AssistantRetries int64   `json:"assistant_retries"`
	Goroutines       int     `json:"goroutines"`
}

// MetricsService owns the Prometheus registry and the counters the rest of
// the services report into.
type MetricsService struct {
	registry *prometheus.Registry

	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	dbDuration    *prometheus.HistogramVec
	cacheOps      *prometheus.CounterVec
	cacheRatio    prometheus.Gauge
	commandTotals *prometheus.CounterVec
	assistantKeys *prometheus.CounterVec

	requests         atomic.Int64
	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	commandsApplied  atomic.Int64
	commandsFailed   atomic.Int64
	assistantCalls   atomic.Int64
	assistantRetries atomic.Int64
}

// NewMetricsService registers all collectors on a private registry so tests
// can construct multiple instances without duplicate-registration panics.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	s := &MetricsService{
		registry: registry,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edusync_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusync_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edusync_db_query_duration_seconds",
			Help:    "Database query latency by operation.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusync_cache_operations_total",
			Help: "Cache operations by result.",
		}, []string{"result"}),
		cacheRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edusync_cache_hit_ratio",
			Help: "Ratio of cache hits to total lookups.",
		}),
		commandTotals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusync_commands_total",
			Help: "Applied assistant commands by outcome.",
		}, []string{"outcome"}),
		assistantKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edusync_assistant_key_attempts_total",
			Help: "Assistant completion attempts by key index and result.",
		}, []string{"key_index", "result"}),
	}

	registry.MustRegister(
		s.httpDuration,
		s.httpRequests,
		s.dbDuration,
		s.cacheOps,
		s.cacheRatio,
		s.commandTotals,
		s.assistantKeys,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "edusync_goroutines",
			Help: "Number of live goroutines.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),
	)

	return s
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.httpRequests.WithLabelValues(method, path, code).Inc()
	s.requests.Add(1)
}

// ObserveDBQuery records the latency of one database operation.
func (s *MetricsService) ObserveDBQuery(operation string, duration time.Duration) {
	s.dbDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheHit counts a cache lookup that found a value.
func (s *MetricsService) RecordCacheHit() {
	s.cacheOps.WithLabelValues("hit").Inc()
	s.cacheHits.Add(1)
	s.updateCacheRatio()
}

// RecordCacheMiss counts a cache lookup that came back empty.
func (s *MetricsService) RecordCacheMiss() {
	s.cacheOps.WithLabelValues("miss").Inc()
	s.cacheMisses.Add(1)
	s.updateCacheRatio()
}

// RecordCommandOutcome counts one applied, skipped or failed command entry.
func (s *MetricsService) RecordCommandOutcome(outcome string, count int) {
	if count <= 0 {
		return
	}
	s.commandTotals.WithLabelValues(outcome).Add(float64(count))
	switch outcome {
	case "applied":
		s.commandsApplied.Add(int64(count))
	case "failed":
		s.commandsFailed.Add(int64(count))
	}
}

// RecordAssistantAttempt counts one completion attempt against a key slot.
func (s *MetricsService) RecordAssistantAttempt(keyIndex int, success bool) {
	result := "error"
	if success {
		result = "ok"
		s.assistantCalls.Add(1)
	} else {
		s.assistantRetries.Add(1)
	}
	s.assistantKeys.WithLabelValues(strconv.Itoa(keyIndex), result).Inc()
}

// Snapshot returns the current counter values.
func (s *MetricsService) Snapshot() MetricsSnapshot {
	hits := s.cacheHits.Load()
	misses := s.cacheMisses.Load()
	return MetricsSnapshot{
		Requests:         s.requests.Load(),
		CacheHits:        hits,
		CacheMisses:      misses,
		CacheHitRatio:    hitRatio(hits, misses),
		CommandsApplied:  s.commandsApplied.Load(),
		CommandsFailed:   s.commandsFailed.Load(),
		AssistantCalls:   s.assistantCalls.Load(),
		AssistantRetries: s.assistantRetries.Load(),
		Goroutines:       runtime.NumGoroutine(),
	}
}

func (s *MetricsService) updateCacheRatio() {
	s.cacheRatio.Set(hitRatio(s.cacheHits.Load(), s.cacheMisses.Load()))
}

func hitRatio(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
