package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheHitRatio       prometheus.Gauge
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	followUpTransitions *prometheus.CounterVec
	mutationRoutes      *prometheus.CounterVec
	approvalReviews     *prometheus.CounterVec
	transferItems       *prometheus.CounterVec
	missedMarked        prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	deferredCount        uint64
	directCount          uint64
	transferFailedCount  uint64
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

	followUpTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "followup_transitions_total",
		Help: "Follow-up state transitions by target status",
	}, []string{"status"})

	mutationRoutes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gated_mutations_total",
		Help: "Gated entity mutations by route and action",
	}, []string{"route", "action"})

	approvalReviews := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_reviews_total",
		Help: "Resolved approval requests by outcome",
	}, []string{"status"})

	transferItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transfer_items_total",
		Help: "Transferred records by result",
	}, []string{"result"})

	missedMarked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "followups_marked_missed_total",
		Help: "Follow-ups flipped to Missed by the sweep",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		followUpTransitions, mutationRoutes, approvalReviews, transferItems, missedMarked, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHitRatio:       cacheHitRatio,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		followUpTransitions: followUpTransitions,
		mutationRoutes:      mutationRoutes,
		approvalReviews:     approvalReviews,
		transferItems:       transferItems,
		missedMarked:        missedMarked,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
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

// RecordFollowUpTransition counts a follow-up entering status.
func (m *MetricsService) RecordFollowUpTransition(status models.FollowUpStatus, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.followUpTransitions.WithLabelValues(string(status)).Add(float64(n))
	if status == models.FollowUpStatusMissed {
		m.missedMarked.Add(float64(n))
	}
}

// RecordMutationRoute counts a gated mutation by the route it took.
func (m *MetricsService) RecordMutationRoute(route models.MutationRoute, action models.ApprovalAction) {
	if m == nil {
		return
	}
	m.mutationRoutes.WithLabelValues(string(route), string(action)).Inc()
	if route == models.RouteDeferred {
		atomic.AddUint64(&m.deferredCount, 1)
	} else {
		atomic.AddUint64(&m.directCount, 1)
	}
}

// RecordApprovalReview counts a resolved approval request.
func (m *MetricsService) RecordApprovalReview(status models.ApprovalStatus) {
	if m == nil {
		return
	}
	m.approvalReviews.WithLabelValues(string(status)).Inc()
}

// RecordTransferItems counts applied and failed transfer items.
func (m *MetricsService) RecordTransferItems(applied, failed int) {
	if m == nil {
		return
	}
	if applied > 0 {
		m.transferItems.WithLabelValues("applied").Add(float64(applied))
	}
	if failed > 0 {
		m.transferItems.WithLabelValues("failed").Add(float64(failed))
		atomic.AddUint64(&m.transferFailedCount, uint64(failed))
	}
}

// Snapshot returns aggregated metrics suitable for the ops endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DeferredMutations:        atomic.LoadUint64(&m.deferredCount),
		DirectMutations:          atomic.LoadUint64(&m.directCount),
		TransferItemsFailed:      atomic.LoadUint64(&m.transferFailedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
