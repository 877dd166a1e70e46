package models

import "time"

// SystemMetrics is a point-in-time summary of request, cache and workflow instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DeferredMutations        uint64    `json:"deferred_mutations"`
	DirectMutations          uint64    `json:"direct_mutations"`
	TransferItemsFailed      uint64    `json:"transfer_items_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
