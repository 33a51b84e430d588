package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer,
// the cache, and the roster workflows.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	suggestionRuns     prometheus.Counter
	suggestionCoverage prometheus.Histogram
	swapsCreated       prometheus.Counter
	swapsResponded     *prometheus.CounterVec
	swapsExecuted      prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	suggestionRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_suggestion_runs_total",
		Help: "Total suggestion report generations",
	})

	suggestionCoverage := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_suggestion_coverage_percent",
		Help:    "Required-slot coverage of generated suggestion reports",
		Buckets: []float64{0, 25, 50, 75, 90, 100},
	})

	swapsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_swap_requests_created_total",
		Help: "Total substitution requests opened",
	})

	swapsResponded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_swap_requests_responded_total",
		Help: "Total substitution request responses",
	}, []string{"decision"})

	swapsExecuted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roster_swaps_executed_total",
		Help: "Total atomically executed swaps",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio,
		cacheHits, cacheMisses, suggestionRuns, suggestionCoverage, swapsCreated, swapsResponded,
		swapsExecuted, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		suggestionRuns:     suggestionRuns,
		suggestionCoverage: suggestionCoverage,
		swapsCreated:       swapsCreated,
		swapsResponded:     swapsResponded,
		swapsExecuted:      swapsExecuted,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordSuggestionRun counts a suggestion report and its coverage.
func (m *MetricsService) RecordSuggestionRun(coverage int) {
	if m == nil {
		return
	}
	m.suggestionRuns.Inc()
	m.suggestionCoverage.Observe(float64(coverage))
}

// RecordSwapRequestCreated counts an opened substitution request.
func (m *MetricsService) RecordSwapRequestCreated() {
	if m == nil {
		return
	}
	m.swapsCreated.Inc()
}

// RecordSwapRequestResponded counts a response by decision.
func (m *MetricsService) RecordSwapRequestResponded(decision string) {
	if m == nil {
		return
	}
	m.swapsResponded.WithLabelValues(decision).Inc()
}

// RecordSwapExecuted counts an atomically applied swap.
func (m *MetricsService) RecordSwapExecuted() {
	if m == nil {
		return
	}
	m.swapsExecuted.Inc()
}
