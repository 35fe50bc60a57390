package memorycache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestCache(t *testing.T, maxEntries int) *Cache[string] {
	t.Helper()
	c, err := New[string](&Config{
		MaxEntries:    maxEntries,
		DefaultTTL:    time.Minute,
		EnableMetrics: true,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c
}

// fakeClock lets tests move time forward without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "nil config", config: nil},
		{name: "no capacity", config: &Config{DefaultTTL: time.Minute}},
		{name: "no ttl", config: &Config{MaxEntries: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New[int](tt.config); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestCache_SetAndGet(t *testing.T) {
	cache := newTestCache(t, 16)
	ctx := context.Background()

	if err := cache.Set(ctx, "mspass@v1", "resolved", time.Minute); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	value, found := cache.Get(ctx, "mspass@v1")
	if !found {
		t.Error("expected to find mspass@v1")
	}
	if value != "resolved" {
		t.Errorf("expected resolved, got %v", value)
	}

	value, found = cache.Get(ctx, "nonexistent")
	if found {
		t.Error("expected not to find nonexistent key")
	}
	if value != "" {
		t.Errorf("expected zero value on miss, got %q", value)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	cache := newTestCache(t, 16)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cache.now = clock.Now
	ctx := context.Background()

	cache.Set(ctx, "short", "v", 50*time.Millisecond)
	cache.Set(ctx, "default", "v", 0)

	if _, found := cache.Get(ctx, "short"); !found {
		t.Error("expected to find short before expiration")
	}

	clock.Advance(100 * time.Millisecond)
	if _, found := cache.Get(ctx, "short"); found {
		t.Error("expected not to find short after expiration")
	}
	if _, found := cache.Get(ctx, "default"); !found {
		t.Error("expected default TTL entry to survive")
	}

	clock.Advance(time.Minute)
	if _, found := cache.Get(ctx, "default"); found {
		t.Error("expected default TTL entry to expire after DefaultTTL")
	}
	if cache.Len() != 0 {
		t.Errorf("expected expired entries to be removed, got %d", cache.Len())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	cache := newTestCache(t, 3)
	ctx := context.Background()

	cache.Set(ctx, "a", "1", 0)
	cache.Set(ctx, "b", "2", 0)
	cache.Set(ctx, "c", "3", 0)

	// Touch a so b becomes least recently used
	cache.Get(ctx, "a")
	cache.Set(ctx, "d", "4", 0)

	if cache.Len() != 3 {
		t.Errorf("expected 3 items, got %d", cache.Len())
	}
	if _, found := cache.Get(ctx, "b"); found {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := cache.Get(ctx, key); !found {
			t.Errorf("expected to find %s", key)
		}
	}
	if got := cache.Metrics().KeysEvicted; got != 1 {
		t.Errorf("expected 1 eviction, got %d", got)
	}
}

func TestCache_Delete(t *testing.T) {
	cache := newTestCache(t, 16)
	ctx := context.Background()

	cache.Set(ctx, "key1", "value1", time.Minute)
	if err := cache.Delete(ctx, "key1"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, found := cache.Get(ctx, "key1"); found {
		t.Error("expected not to find key1 after deletion")
	}
	if err := cache.Delete(ctx, "nonexistent"); err != nil {
		t.Fatalf("delete of non-existent key should not error: %v", err)
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	cache := newTestCache(t, 16)
	ctx := context.Background()

	cache.Set(ctx, "mspass@v1", "a", 0)
	cache.Set(ctx, "mspass@v2", "b", 0)
	cache.Set(ctx, "mspass2@v1", "c", 0)

	removed, err := cache.DeletePrefix(ctx, "mspass@")
	if err != nil {
		t.Fatalf("failed to delete prefix: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if _, found := cache.Get(ctx, "mspass2@v1"); !found {
		t.Error("expected mspass2@v1 to survive")
	}
}

func TestCache_Clear(t *testing.T) {
	cache := newTestCache(t, 16)
	ctx := context.Background()

	cache.Set(ctx, "key1", "value1", time.Minute)
	cache.Set(ctx, "key2", "value2", time.Minute)
	cache.Set(ctx, "key3", "value3", time.Minute)
	if cache.Len() != 3 {
		t.Errorf("expected 3 items, got %d", cache.Len())
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("expected 0 items after clear, got %d", cache.Len())
	}
}

func TestCache_Metrics(t *testing.T) {
	cache := newTestCache(t, 16)
	ctx := context.Background()

	metrics := cache.Metrics()
	if metrics.Hits != 0 || metrics.Misses != 0 {
		t.Errorf("expected 0 hits and misses initially, got %d hits and %d misses", metrics.Hits, metrics.Misses)
	}

	cache.Set(ctx, "key1", "value1", time.Minute)
	cache.Get(ctx, "key1")
	cache.Get(ctx, "nonexistent")

	metrics = cache.Metrics()
	if metrics.Hits != 1 || metrics.Misses != 1 || metrics.KeysAdded != 1 {
		t.Errorf("unexpected metrics %+v", metrics)
	}
	if metrics.HitRate() != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", metrics.HitRate())
	}

	cache.ResetMetrics()
	if m := cache.Metrics(); m.Hits != 0 || m.Misses != 0 {
		t.Errorf("expected reset metrics, got %+v", m)
	}

	quiet, err := New[string](&Config{MaxEntries: 1, DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	quiet.Get(ctx, "x")
	if m := quiet.Metrics(); m.Misses != 0 {
		t.Errorf("expected no metrics when disabled, got %+v", m)
	}
}

func TestCache_UpdateExisting(t *testing.T) {
	cache := newTestCache(t, 16)
	ctx := context.Background()

	cache.Set(ctx, "key1", "value1", time.Minute)
	cache.Set(ctx, "key1", "value2", time.Minute)

	value, found := cache.Get(ctx, "key1")
	if !found {
		t.Error("expected to find key1")
	}
	if value != "value2" {
		t.Errorf("expected value2, got %v", value)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 item, got %d", cache.Len())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := newTestCache(t, 8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set(ctx, fmt.Sprintf("k%d", id), fmt.Sprint(j), time.Minute)
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Get(ctx, fmt.Sprintf("k%d", id))
				if j%10 == 0 {
					cache.DeletePrefix(ctx, "k")
				}
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 8 {
		t.Errorf("expected at most 8 items, got %d", cache.Len())
	}
}
