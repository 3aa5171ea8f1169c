package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gocache/internal/cache"
)

// CacheMetrics records cache events in Prometheus. It implements cache.Observer.
type CacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	sets          prometheus.Counter
	forgets       prometheus.Counter
	expired       *prometheus.CounterVec
	sweeps        prometheus.Counter
	sweepDuration prometheus.Histogram

	collector *Collector
}

var _ cache.Observer = (*CacheMetrics)(nil)

// NewCacheMetrics registers the cache metrics with the collector
func NewCacheMetrics(collector *Collector) *CacheMetrics {
	return &CacheMetrics{
		hits: collector.RegisterCounter(
			MetricCacheHitsTotal,
			"Total Get calls that returned a live value",
			nil,
		).WithLabelValues(),
		misses: collector.RegisterCounter(
			MetricCacheMissesTotal,
			"Total Get calls that found no live value",
			nil,
		).WithLabelValues(),
		sets: collector.RegisterCounter(
			MetricCacheSetsTotal,
			"Total successful Set calls",
			nil,
		).WithLabelValues(),
		forgets: collector.RegisterCounter(
			MetricCacheForgetsTotal,
			"Total Forget calls",
			nil,
		).WithLabelValues(),
		expired: collector.RegisterCounter(
			MetricCacheExpiredTotal,
			"Total expired entries removed, by removal source",
			[]string{LabelSource},
		),
		sweeps: collector.RegisterCounter(
			MetricCacheSweepsTotal,
			"Total expiry sweeps",
			nil,
		).WithLabelValues(),
		sweepDuration: collector.RegisterHistogram(
			MetricCacheSweepDuration,
			"Expiry sweep duration in seconds",
			[]float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		),
		collector: collector,
	}
}

// TrackEntries exposes the stored entry count, read from count on every scrape.
// Call it once, after the cache exists.
func (m *CacheMetrics) TrackEntries(count func() int) {
	if m == nil {
		return
	}
	m.collector.RegisterGaugeFunc(
		MetricCacheEntries,
		"Entries currently stored, including expired ones not yet removed",
		func() float64 { return float64(count()) },
	)
}

func (m *CacheMetrics) Hit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}

func (m *CacheMetrics) Miss() {
	if m == nil {
		return
	}
	m.misses.Inc()
}

func (m *CacheMetrics) Stored() {
	if m == nil {
		return
	}
	m.sets.Inc()
}

func (m *CacheMetrics) Forgotten() {
	if m == nil {
		return
	}
	m.forgets.Inc()
}

// Expired adds n removed entries under the given source label
func (m *CacheMetrics) Expired(source cache.ExpirySource, n int) {
	if m == nil {
		return
	}
	m.expired.WithLabelValues(string(source)).Add(float64(n))
}

// Swept records one completed sweep
func (m *CacheMetrics) Swept(_, _ int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.sweepDuration.Observe(elapsed.Seconds())
}
