// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package cache holds computed API responses keyed by request parameters.
// The whole cache is cleared when the dataset is reloaded.
package cache

import (
	"time"

	"github.com/tomtom215/rentalscope/internal/config"
)

// Cacher is implemented by both the TTL cache and the LFU cache.
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
	Len() int
	GetStats() Stats
	HitRate() float64
	Close()
}

// CacheType selects the cache implementation.
type CacheType string

const (
	// CacheTypeTTL expires entries after a fixed TTL with no size bound.
	CacheTypeTTL CacheType = "ttl"

	// CacheTypeLFU bounds the entry count and evicts the least frequently
	// used entry.
	CacheTypeLFU CacheType = "lfu"
)

// NewCacher builds the response cache described by cfg. It returns nil when
// caching is disabled; callers treat a nil Cacher as "always miss".
func NewCacher(cfg config.CacheConfig) Cacher {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	switch CacheType(cfg.Type) {
	case CacheTypeLFU:
		return newLFUCache("response", cfg.Capacity, ttl, time.Now)
	default:
		return newTTLCache("response", ttl, time.Now)
	}
}

var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*LFUCache)(nil)
)
