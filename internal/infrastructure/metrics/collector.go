package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/asakaida/mdschema/pkg/cache"
)

// CacheStats is the part of a cache the collector reads
type CacheStats interface {
	Metrics() *cache.Metrics
	Len() int
}

// Collector collects and aggregates metrics for the application.
type Collector struct {
	// Operation metrics (write, read, resolve, ...)
	operations sync.Map // map[string]*uint64 - operation -> count
	errors     sync.Map // map[string]*uint64 - operation -> error count
	duration   sync.Map // map[string]*durationValue - operation -> total duration in seconds

	invalidations uint64

	// Cache reference (optional, for querying cache-specific metrics)
	cache CacheStats
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

// CacheMetrics holds cache performance metrics.
type CacheMetrics struct {
	Hits          uint64
	Misses        uint64
	HitRate       float64
	KeysCurrent   int64
	Evictions     uint64
	Invalidations uint64
}

// OperationMetrics holds schema operation metrics.
type OperationMetrics struct {
	Counts               map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetCache sets the cache instance for collecting cache metrics.
func (c *Collector) SetCache(cache CacheStats) {
	c.cache = cache
}

// RecordOperation records one schema operation.
func (c *Collector) RecordOperation(operation string) {
	atomic.AddUint64(c.getOrCreateCounter(&c.operations, operation), 1)
}

// RecordError records a failed schema operation.
func (c *Collector) RecordError(operation string) {
	atomic.AddUint64(c.getOrCreateCounter(&c.errors, operation), 1)
}

// RecordDuration records the duration of an operation in seconds.
func (c *Collector) RecordDuration(operation string, durationSeconds float64) {
	val, _ := c.duration.LoadOrStore(operation, &durationValue{})
	dv := val.(*durationValue)

	dv.mu.Lock()
	dv.totalSeconds += durationSeconds
	dv.mu.Unlock()
}

// RecordInvalidation records a cache invalidation caused by a document change.
func (c *Collector) RecordInvalidation() {
	atomic.AddUint64(&c.invalidations, 1)
}

// GetCacheMetrics returns current cache metrics.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	result := &CacheMetrics{Invalidations: atomic.LoadUint64(&c.invalidations)}
	if c.cache == nil {
		return result
	}

	metrics := c.cache.Metrics()
	if metrics == nil {
		return result
	}

	result.Hits = metrics.Hits
	result.Misses = metrics.Misses
	result.HitRate = metrics.HitRate()
	result.Evictions = metrics.KeysEvicted
	result.KeysCurrent = int64(c.cache.Len())
	return result
}

// GetOperationMetrics returns current operation metrics.
func (c *Collector) GetOperationMetrics() *OperationMetrics {
	result := &OperationMetrics{
		Counts:               make(map[string]uint64),
		ErrorCounts:          make(map[string]uint64),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.operations.Range(func(key, value interface{}) bool {
		result.Counts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.errors.Range(func(key, value interface{}) bool {
		result.ErrorCounts[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})

	c.duration.Range(func(key, value interface{}) bool {
		dv := value.(*durationValue)
		dv.mu.Lock()
		result.TotalDurationSeconds[key.(string)] = dv.totalSeconds
		dv.mu.Unlock()
		return true
	})

	return result
}

// getOrCreateCounter gets or creates a counter for the given key.
func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
