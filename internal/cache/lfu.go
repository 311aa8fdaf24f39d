// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/rentalscope/internal/metrics"
)

type lfuEntry struct {
	key       string
	value     interface{}
	freq      int
	expiresAt time.Time
	prev      *lfuEntry
	next      *lfuEntry
}

// freqList is a doubly-linked list of entries sharing one frequency, most
// recently used at the front.
type freqList struct {
	head, tail *lfuEntry // sentinels
	size       int
}

func newFreqList() *freqList {
	fl := &freqList{head: &lfuEntry{}, tail: &lfuEntry{}}
	fl.head.next = fl.tail
	fl.tail.prev = fl.head
	return fl
}

func (fl *freqList) pushFront(e *lfuEntry) {
	e.prev = fl.head
	e.next = fl.head.next
	fl.head.next.prev = e
	fl.head.next = e
	fl.size++
}

func (fl *freqList) unlink(e *lfuEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	fl.size--
}

func (fl *freqList) back() *lfuEntry {
	if fl.size == 0 {
		return nil
	}
	return fl.tail.prev
}

// LFUCache is a bounded cache that evicts the least frequently used entry,
// breaking ties by least recent use. Entries also expire after a TTL.
// Get, Set and eviction are O(1).
type LFUCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	name     string
	now      func() time.Time

	keys    map[string]*lfuEntry
	freqs   map[int]*freqList
	minFreq int

	stats Stats
}

// NewLFUCache creates an LFU cache holding at most capacity entries.
func NewLFUCache(capacity int, ttl time.Duration) *LFUCache {
	return newLFUCache("response", capacity, ttl, time.Now)
}

func newLFUCache(name string, capacity int, ttl time.Duration, now func() time.Time) *LFUCache {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LFUCache{
		capacity: capacity,
		ttl:      ttl,
		name:     name,
		now:      now,
		keys:     make(map[string]*lfuEntry, capacity),
		freqs:    make(map[int]*freqList),
	}
}

// Get returns the value for key and bumps its frequency.
func (c *LFUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.keys[key]
	if !ok {
		c.lookup(false)
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		c.evicted(1)
		c.lookup(false)
		return nil, false
	}

	c.touch(e)
	c.lookup(true)
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *LFUCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key, evicting the least frequently used
// entry when the cache is full. Updating an existing key counts as a use.
func (c *LFUCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	if e, ok := c.keys[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.touch(e)
		return
	}

	if len(c.keys) >= c.capacity {
		if victim := c.freqs[c.minFreq]; victim != nil {
			if e := victim.back(); e != nil {
				c.remove(e)
				c.evicted(1)
			}
		}
	}

	e := &lfuEntry{key: key, value: value, freq: 1, expiresAt: expiresAt}
	c.list(1).pushFront(e)
	c.keys[key] = e
	c.minFreq = 1
	c.sized()
}

// Delete removes key.
func (c *LFUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.keys[key]; ok {
		c.remove(e)
		c.evicted(1)
	}
}

// Clear drops every entry.
func (c *LFUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.keys)
	c.keys = make(map[string]*lfuEntry, c.capacity)
	c.freqs = make(map[int]*freqList)
	c.minFreq = 0
	c.evicted(int64(n))
}

// Len returns the number of stored entries.
func (c *LFUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// Frequency returns how often key has been used, or 0 when absent.
func (c *LFUCache) Frequency(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.keys[key]; ok {
		return e.freq
	}
	return 0
}

// GetStats returns a snapshot of the cache counters.
func (c *LFUCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage
func (c *LFUCache) HitRate() float64 {
	return hitRate(c.GetStats())
}

// Close is a no-op; expiry is lazy.
func (c *LFUCache) Close() {}

// The helpers below require c.mu.

func (c *LFUCache) list(freq int) *freqList {
	fl := c.freqs[freq]
	if fl == nil {
		fl = newFreqList()
		c.freqs[freq] = fl
	}
	return fl
}

func (c *LFUCache) touch(e *lfuEntry) {
	fl := c.freqs[e.freq]
	fl.unlink(e)
	if fl.size == 0 {
		delete(c.freqs, e.freq)
		if c.minFreq == e.freq {
			c.minFreq++
		}
	}
	e.freq++
	c.list(e.freq).pushFront(e)
}

func (c *LFUCache) remove(e *lfuEntry) {
	if fl := c.freqs[e.freq]; fl != nil {
		fl.unlink(e)
		if fl.size == 0 {
			delete(c.freqs, e.freq)
		}
	}
	delete(c.keys, e.key)
	if len(c.keys) == 0 {
		c.minFreq = 0
		return
	}
	if _, ok := c.freqs[c.minFreq]; !ok {
		c.recomputeMinFreq()
	}
}

// recomputeMinFreq scans the live frequencies. Only reached when the lowest
// bucket empties through removal rather than a touch.
func (c *LFUCache) recomputeMinFreq() {
	c.minFreq = 0
	for f := range c.freqs {
		if c.minFreq == 0 || f < c.minFreq {
			c.minFreq = f
		}
	}
}

func (c *LFUCache) lookup(hit bool) {
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	metrics.RecordCacheLookup(c.name, hit)
}

func (c *LFUCache) evicted(n int64) {
	c.stats.Evictions += n
	if n > 0 {
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(n))
	}
	c.sized()
}

func (c *LFUCache) sized() {
	c.stats.TotalKeys = int64(len(c.keys))
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.keys)))
}
