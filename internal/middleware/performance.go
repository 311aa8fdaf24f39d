// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/rentalscope/internal/logging"
)

// DefaultSlowThreshold marks a request as slow in the log.
const DefaultSlowThreshold = time.Second

// RequestSample is one observed request.
type RequestSample struct {
	Method     string        `json:"method"`
	Route      string        `json:"route"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration_ns"`
	Timestamp  time.Time     `json:"timestamp"`
}

// EndpointStats aggregates the retained samples of one route.
type EndpointStats struct {
	Endpoint     string  `json:"endpoint"`
	RequestCount int     `json:"request_count"`
	ErrorCount   int     `json:"error_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        float64 `json:"p50_ms"`
	P95MS        float64 `json:"p95_ms"`
	P99MS        float64 `json:"p99_ms"`
	MaxMS        float64 `json:"max_ms"`
}

// PerformanceMonitor keeps a ring of recent request samples and logs slow
// requests. It complements the Prometheus histograms with per-route
// percentiles served by the API itself.
type PerformanceMonitor struct {
	mu        sync.RWMutex
	samples   []RequestSample
	next      int
	full      bool
	threshold time.Duration
	now       func() time.Time
}

// NewPerformanceMonitor retains up to capacity samples.
func NewPerformanceMonitor(capacity int, slowThreshold time.Duration) *PerformanceMonitor {
	if capacity <= 0 {
		capacity = 1000
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &PerformanceMonitor{
		samples:   make([]RequestSample, capacity),
		threshold: slowThreshold,
		now:       time.Now,
	}
}

// Record adds a sample, overwriting the oldest once full.
func (pm *PerformanceMonitor) Record(s RequestSample) {
	pm.mu.Lock()
	pm.samples[pm.next] = s
	pm.next = (pm.next + 1) % len(pm.samples)
	if pm.next == 0 {
		pm.full = true
	}
	pm.mu.Unlock()

	if s.Duration > pm.threshold {
		logging.Warn().
			Str("method", s.Method).
			Str("route", s.Route).
			Int("status", s.StatusCode).
			Dur("duration", s.Duration).
			Dur("threshold", pm.threshold).
			Msg("Slow request")
	}
}

// Recent returns up to n samples, newest last.
func (pm *PerformanceMonitor) Recent(n int) []RequestSample {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	all := pm.ordered()
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	return append([]RequestSample(nil), all[len(all)-n:]...)
}

// Stats aggregates the retained samples per "METHOD route", busiest first.
func (pm *PerformanceMonitor) Stats() []EndpointStats {
	pm.mu.RLock()
	grouped := make(map[string][]RequestSample)
	for _, s := range pm.ordered() {
		key := s.Method + " " + s.Route
		grouped[key] = append(grouped[key], s)
	}
	pm.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(grouped))
	for endpoint, samples := range grouped {
		durations := make([]float64, len(samples))
		var sum float64
		st := EndpointStats{Endpoint: endpoint, RequestCount: len(samples)}
		for i, s := range samples {
			ms := float64(s.Duration) / float64(time.Millisecond)
			durations[i] = ms
			sum += ms
			if s.StatusCode >= 500 {
				st.ErrorCount++
			}
		}
		sort.Float64s(durations)
		st.AvgMS = sum / float64(len(durations))
		st.P50MS = percentile(durations, 0.50)
		st.P95MS = percentile(durations, 0.95)
		st.P99MS = percentile(durations, 0.99)
		st.MaxMS = durations[len(durations)-1]
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Endpoint < stats[j].Endpoint
	})
	return stats
}

// ordered returns the samples oldest first. Requires pm.mu.
func (pm *PerformanceMonitor) ordered() []RequestSample {
	if !pm.full {
		return pm.samples[:pm.next]
	}
	out := make([]RequestSample, 0, len(pm.samples))
	out = append(out, pm.samples[pm.next:]...)
	return append(out, pm.samples[:pm.next]...)
}

// Middleware records every request passing through it.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := pm.now()
		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		pm.Record(RequestSample{
			Method:     r.Method,
			Route:      routeLabel(r),
			StatusCode: wrapper.statusCode,
			Duration:   pm.now().Sub(start),
			Timestamp:  start,
		})
	})
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
