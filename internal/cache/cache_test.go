// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/rentalscope/internal/config"
)

// fakeClock is advanced by hand so expiry tests do not sleep.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	c := newTTLCache("test", ttl, clock.Now)
	t.Cleanup(c.Close)
	return c, clock
}

func TestCacheBasicOperations(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Get(key1) = %v, want value1", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("Expected key1 to exist immediately after set")
	}

	clock.Advance(61 * time.Second)
	if _, ok := c.Get("key1"); ok {
		t.Error("Expected key1 to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expired read", c.Len())
	}
}

func TestCacheSetWithTTLOverridesDefault(t *testing.T) {
	c, clock := newTestCache(t, time.Hour)

	c.SetWithTTL("short", 1, time.Second)
	c.Set("long", 2)
	clock.Advance(2 * time.Second)

	if _, ok := c.Get("short"); ok {
		t.Error("short-lived entry should be expired")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("default-TTL entry should still exist")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Delete("a")
	c.Delete("missing")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	if got := c.GetStats().Evictions; got != 1 {
		t.Errorf("Evictions after delete = %d, want 1", got)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	stats := c.GetStats()
	if stats.Evictions != 3 {
		t.Errorf("Evictions after Clear = %d, want 3", stats.Evictions)
	}
	if stats.TotalKeys != 0 {
		t.Errorf("TotalKeys after Clear = %d, want 0", stats.TotalKeys)
	}
}

func TestCacheStats(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	if got := c.HitRate(); got != 0 {
		t.Errorf("HitRate() with no lookups = %v, want 0", got)
	}

	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	stats := c.GetStats()
	if stats.Hits != 3 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 3/1", stats.Hits, stats.Misses)
	}
	if got := c.HitRate(); got != 75 {
		t.Errorf("HitRate() = %v, want 75", got)
	}
}

func TestCacheCleanup(t *testing.T) {
	c, clock := newTestCache(t, time.Minute)

	c.SetWithTTL("old", 1, time.Second)
	c.Set("fresh", 2)
	clock.Advance(10 * time.Second)

	c.cleanup()
	if c.Len() != 1 {
		t.Errorf("Len() after cleanup = %d, want 1", c.Len())
	}
	stats := c.GetStats()
	if !stats.LastCleanup.Equal(clock.Now()) {
		t.Errorf("LastCleanup = %v, want %v", stats.LastCleanup, clock.Now())
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	c := New(time.Minute)
	c.Close()
	c.Close()

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Error("cache should stay usable after Close")
	}
}

func TestCacheConcurrency(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j%10)
				c.Set(key, j)
				c.Get(key)
				if j%25 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 200 {
		t.Errorf("Len() = %d, want at most 200", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		Years   []int    `json:"years"`
		Seasons []string `json:"seasons"`
	}

	a := GenerateKey("dashboard", params{Years: []int{2011}, Seasons: []string{"spring"}})
	b := GenerateKey("dashboard", params{Years: []int{2011}, Seasons: []string{"spring"}})
	c := GenerateKey("dashboard", params{Years: []int{2012}, Seasons: []string{"spring"}})
	d := GenerateKey("kpis", params{Years: []int{2011}, Seasons: []string{"spring"}})

	if a != b {
		t.Errorf("equal params produced different keys: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different params produced the same key")
	}
	if a == d {
		t.Error("different methods produced the same key")
	}
	// prefix + ":" + 32 hex chars
	if len(a) != len("dashboard:")+32 {
		t.Errorf("key %q has unexpected length %d", a, len(a))
	}
}

func TestGenerateKeyUnmarshalable(t *testing.T) {
	key := GenerateKey("bad", make(chan int))
	if key == "" {
		t.Error("GenerateKey should fall back to a formatted key")
	}
}

func TestNewCacher(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.CacheConfig
		wantNil bool
		wantLFU bool
	}{
		{"disabled", config.CacheConfig{Enabled: false, Type: "ttl"}, true, false},
		{"ttl", config.CacheConfig{Enabled: true, Type: "ttl", TTL: time.Minute}, false, false},
		{"lfu", config.CacheConfig{Enabled: true, Type: "lfu", TTL: time.Minute, Capacity: 10}, false, true},
		{"unknown falls back to ttl", config.CacheConfig{Enabled: true, Type: "other"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCacher(tt.cfg)
			if tt.wantNil {
				if c != nil {
					t.Errorf("NewCacher() = %T, want nil", c)
				}
				return
			}
			if c == nil {
				t.Fatal("NewCacher() = nil")
			}
			defer c.Close()
			_, isLFU := c.(*LFUCache)
			if isLFU != tt.wantLFU {
				t.Errorf("NewCacher() type = %T, wantLFU %v", c, tt.wantLFU)
			}
		})
	}
}
