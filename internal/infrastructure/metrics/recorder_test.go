package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asakaida/mdschema/internal/entities"
	"github.com/asakaida/mdschema/pkg/cache/memorycache"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Observe_RecordsOperation(t *testing.T) {
	collector := NewCollector()
	recorder := NewRecorder(collector, nil)

	err := recorder.Observe("resolve", func() error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := collector.GetOperationMetrics()
	if count := m.Counts["resolve"]; count != 1 {
		t.Errorf("expected operation count 1 for resolve, got %d", count)
	}
	if _, ok := m.TotalDurationSeconds["resolve"]; !ok {
		t.Error("expected duration to be recorded for resolve")
	}
	if count := m.ErrorCounts["resolve"]; count != 0 {
		t.Errorf("expected no errors for resolve, got %d", count)
	}
}

func TestRecorder_Observe_RecordsError(t *testing.T) {
	collector := NewCollector()
	exporter := NewPrometheusExporter(collector, nil)
	recorder := NewRecorder(collector, exporter)

	wantErr := fmt.Errorf("%w: npts is not defined", entities.ErrLookup)
	err := recorder.Observe("resolve", func() error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the operation error, got %v", err)
	}

	if count := collector.GetOperationMetrics().ErrorCounts["resolve"]; count != 1 {
		t.Errorf("expected error count 1, got %d", count)
	}
	got := testutil.ToFloat64(exporter.errors.WithLabelValues("resolve", string(entities.SeverityInvalid)))
	if got != 1 {
		t.Errorf("expected 1 Invalid error in Prometheus, got %v", got)
	}
	if got := testutil.ToFloat64(exporter.operations.WithLabelValues("resolve")); got != 1 {
		t.Errorf("expected 1 operation in Prometheus, got %v", got)
	}
}

func TestRecorder_Observe_MultipleOperations(t *testing.T) {
	collector := NewCollector()
	recorder := NewRecorder(collector, nil)

	for i := 0; i < 5; i++ {
		recorder.Observe("write", func() error { return nil })
	}
	if count := collector.GetOperationMetrics().Counts["write"]; count != 5 {
		t.Errorf("expected operation count 5, got %d", count)
	}
}

func TestRecorder_Nil(t *testing.T) {
	var recorder *Recorder
	called := false
	if err := recorder.Observe("resolve", func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected nil recorder to run the operation")
	}
	recorder.CacheHit()
	recorder.CacheMiss()
	recorder.Invalidation()
	recorder.Catalogues("mspass", 1, 1)
}

func TestCollector_CacheMetrics(t *testing.T) {
	collector := NewCollector()
	if m := collector.GetCacheMetrics(); m.Hits != 0 || m.KeysCurrent != 0 {
		t.Errorf("expected empty cache metrics without a cache, got %+v", m)
	}

	c, err := memorycache.New[string](&memorycache.Config{MaxEntries: 4, DefaultTTL: time.Minute, EnableMetrics: true})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	collector.SetCache(c)

	ctx := context.Background()
	c.Set(ctx, "mspass@v1", "x", 0)
	c.Get(ctx, "mspass@v1")
	c.Get(ctx, "mspass@v2")
	collector.RecordInvalidation()

	m := collector.GetCacheMetrics()
	if m.Hits != 1 || m.Misses != 1 || m.KeysCurrent != 1 || m.Invalidations != 1 {
		t.Errorf("unexpected cache metrics %+v", m)
	}
	if m.HitRate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", m.HitRate)
	}
}

func TestPrometheusExporter_Handler(t *testing.T) {
	collector := NewCollector()
	exporter := NewPrometheusExporter(collector, nil)
	recorder := NewRecorder(collector, exporter)

	recorder.Observe("resolve", func() error { return nil })
	recorder.CacheHit()
	recorder.Invalidation()
	recorder.Catalogues("mspass", 7, 2)
	exporter.Update()

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Result().Body)

	for _, want := range []string{
		`mdschema_operations_total{operation="resolve"} 1`,
		`mdschema_resolve_cache_hits_total 1`,
		`mdschema_resolve_cache_invalidations_total 1`,
		`mdschema_resolved_catalogues{namespace="Database",schema="mspass"} 7`,
		`mdschema_resolved_catalogues{namespace="Metadata",schema="mspass"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
