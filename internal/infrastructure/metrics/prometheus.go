package metrics

import (
	"net/http"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	collector *Collector
	gatherer  prometheus.Gatherer

	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheHitRate       prometheus.Gauge
	cacheKeys          prometheus.Gauge
	cacheInvalidations prometheus.Counter
	operations         *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	errors             *prometheus.CounterVec
	catalogues         *prometheus.GaugeVec
}

// NewPrometheusExporter creates a new Prometheus exporter registered on reg.
// A nil reg uses a fresh registry, so several exporters can coexist in tests.
func NewPrometheusExporter(collector *Collector, reg *prometheus.Registry) *PrometheusExporter {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &PrometheusExporter{
		collector: collector,
		gatherer:  reg,
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdschema_resolve_cache_hits_total",
			Help: "Total number of resolved-schema cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdschema_resolve_cache_misses_total",
			Help: "Total number of resolved-schema cache misses",
		}),
		cacheHitRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mdschema_resolve_cache_hit_rate",
			Help: "Current cache hit rate (0.0 to 1.0)",
		}),
		cacheKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mdschema_resolve_cache_keys_current",
			Help: "Current number of resolved schemas in the cache",
		}),
		cacheInvalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdschema_resolve_cache_invalidations_total",
			Help: "Total number of cache invalidations caused by document changes",
		}),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdschema_operations_total",
				Help: "Total number of schema operations",
			},
			[]string{"operation"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mdschema_operation_duration_seconds",
				Help:    "Duration of schema operations in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdschema_operation_errors_total",
				Help: "Total number of failed schema operations by severity",
			},
			[]string{"operation", "severity"},
		),
		catalogues: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mdschema_resolved_catalogues",
				Help: "Number of catalogues in the last resolved schema",
			},
			[]string{"schema", "namespace"},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{})
}

// Update updates Gauge metrics from the collector.
// This should be called periodically (e.g., every 10 seconds).
func (e *PrometheusExporter) Update() {
	cacheMetrics := e.collector.GetCacheMetrics()
	e.cacheHitRate.Set(cacheMetrics.HitRate)
	e.cacheKeys.Set(float64(cacheMetrics.KeysCurrent))
}

// RecordOperation records an operation in Prometheus.
func (e *PrometheusExporter) RecordOperation(operation string) {
	e.operations.WithLabelValues(operation).Inc()
}

// RecordDuration records a duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(operation string, durationSeconds float64) {
	e.duration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordError records an error in Prometheus, labelled with its severity.
func (e *PrometheusExporter) RecordError(operation string, err error) {
	e.errors.WithLabelValues(operation, string(entities.SeverityOf(err))).Inc()
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit() {
	e.cacheHits.Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss() {
	e.cacheMisses.Inc()
}

// RecordCacheInvalidation records a cache invalidation.
func (e *PrometheusExporter) RecordCacheInvalidation() {
	e.cacheInvalidations.Inc()
}

// RecordCatalogues records the size of a resolved schema.
func (e *PrometheusExporter) RecordCatalogues(schema string, storage, views int) {
	e.catalogues.WithLabelValues(schema, entities.NamespaceDatabase).Set(float64(storage))
	e.catalogues.WithLabelValues(schema, entities.NamespaceMetadata).Set(float64(views))
}
