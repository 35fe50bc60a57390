package metrics

import "time"

// Recorder feeds the collector and the Prometheus exporter together.
// Either may be nil, and a nil *Recorder records nothing.
type Recorder struct {
	collector *Collector
	exporter  *PrometheusExporter
}

// NewRecorder creates a new Recorder
func NewRecorder(collector *Collector, exporter *PrometheusExporter) *Recorder {
	return &Recorder{collector: collector, exporter: exporter}
}

// Observe runs fn as the named operation and records its count, duration
// and error. The error of fn is returned unchanged.
func (r *Recorder) Observe(operation string, fn func() error) error {
	if r == nil {
		return fn()
	}

	start := time.Now()
	if r.collector != nil {
		r.collector.RecordOperation(operation)
	}
	if r.exporter != nil {
		r.exporter.RecordOperation(operation)
	}

	err := fn()

	duration := time.Since(start).Seconds()
	if r.collector != nil {
		r.collector.RecordDuration(operation, duration)
	}
	if r.exporter != nil {
		r.exporter.RecordDuration(operation, duration)
	}

	if err != nil {
		if r.collector != nil {
			r.collector.RecordError(operation)
		}
		if r.exporter != nil {
			r.exporter.RecordError(operation, err)
		}
	}
	return err
}

// CacheHit records a resolved-schema cache hit
func (r *Recorder) CacheHit() {
	if r != nil && r.exporter != nil {
		r.exporter.RecordCacheHit()
	}
}

// CacheMiss records a resolved-schema cache miss
func (r *Recorder) CacheMiss() {
	if r != nil && r.exporter != nil {
		r.exporter.RecordCacheMiss()
	}
}

// Invalidation records a cache invalidation
func (r *Recorder) Invalidation() {
	if r == nil {
		return
	}
	if r.collector != nil {
		r.collector.RecordInvalidation()
	}
	if r.exporter != nil {
		r.exporter.RecordCacheInvalidation()
	}
}

// Catalogues records the size of a resolved schema
func (r *Recorder) Catalogues(schema string, storage, views int) {
	if r != nil && r.exporter != nil {
		r.exporter.RecordCatalogues(schema, storage, views)
	}
}
