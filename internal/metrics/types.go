package metrics

// Metric name constants following Prometheus naming conventions
// Format: gocache_{component}_{metric}_{unit}
const (
	MetricCacheHitsTotal     = "gocache_cache_hits_total"
	MetricCacheMissesTotal   = "gocache_cache_misses_total"
	MetricCacheSetsTotal     = "gocache_cache_sets_total"
	MetricCacheForgetsTotal  = "gocache_cache_forgets_total"
	MetricCacheExpiredTotal  = "gocache_cache_expired_total"
	MetricCacheEntries       = "gocache_cache_entries"
	MetricCacheSweepDuration = "gocache_cache_sweep_duration_seconds"
	MetricCacheSweepsTotal   = "gocache_cache_sweeps_total"
)

// Label name constants
const (
	LabelSource = "source"
)
