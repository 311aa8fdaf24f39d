// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/rentalscope/internal/cache"
	"github.com/tomtom215/rentalscope/internal/middleware"
	"github.com/tomtom215/rentalscope/internal/models"
)

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status           string           `json:"status"`
	Version          string           `json:"version"`
	UptimeSeconds    float64          `json:"uptime_seconds"`
	DatasetPath      string           `json:"dataset_path"`
	DatasetLoaded    bool             `json:"dataset_loaded"`
	Warehouse        *WarehouseStatus `json:"warehouse,omitempty"`
	Cache            *CacheStatus     `json:"cache,omitempty"`
	WebSocketClients int              `json:"websocket_clients"`
}

// WarehouseStatus describes the DuckDB mirror.
type WarehouseStatus struct {
	Connected   bool       `json:"connected"`
	Breaker     string     `json:"breaker"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Rows        int64      `json:"rows"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
}

// CacheStatus summarizes the response cache.
type CacheStatus struct {
	Entries   int     `json:"entries"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

// PerformanceReport is the payload of GET /api/v1/performance.
type PerformanceReport struct {
	Endpoints []middleware.EndpointStats `json:"endpoints"`
	Recent    []middleware.RequestSample `json:"recent"`
}

// Health reports component status. It always answers 200; status is
// "degraded" when the dataset is not loaded or the warehouse is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	status := HealthStatus{
		Status:        "healthy",
		Version:       Version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		DatasetPath:   h.pipeline.Path(),
		DatasetLoaded: h.pipeline.Loader().Cached(h.pipeline.Path()),
	}
	if !status.DatasetLoaded {
		status.Status = "degraded"
	}

	if h.warehouse != nil {
		wh := &WarehouseStatus{
			Connected:   h.warehouse.Ping(r.Context()) == nil,
			Breaker:     h.warehouse.Breaker(),
			Fingerprint: h.warehouse.Fingerprint(),
		}
		if t := h.warehouse.LoadedAt(); !t.IsZero() {
			wh.LoadedAt = &t
		}
		if wh.Connected {
			if n, err := h.warehouse.RowCount(r.Context()); err == nil {
				wh.Rows = n
			}
		}
		if !wh.Connected {
			status.Status = "degraded"
		}
		status.Warehouse = wh
	}

	if h.cache != nil {
		status.Cache = newCacheStatus(h.cache)
	}
	if h.wsHub != nil {
		status.WebSocketClients = h.wsHub.ClientCount()
	}

	respondSuccess(w, status, models.Metadata{})
}

func newCacheStatus(c cache.Cacher) *CacheStatus {
	stats := c.GetStats()
	return &CacheStatus{
		Entries:   c.Len(),
		Hits:      stats.Hits,
		Misses:    stats.Misses,
		Evictions: stats.Evictions,
		HitRate:   c.HitRate(),
	}
}

// HealthLive answers 200 while the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	respondSuccess(w, map[string]interface{}{"alive": true}, models.Metadata{})
}

// HealthReady answers 200 once the dataset loads and 503 while it cannot.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	t, err := h.table(r.Context())
	if err != nil {
		respondErrorDetails(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Dataset not loaded", map[string]interface{}{"reason": err.Error()}, nil)
		return
	}
	respondSuccess(w, map[string]interface{}{
		"ready":       true,
		"rows":        t.Len(),
		"fingerprint": t.Source().Fingerprint,
	}, models.Metadata{})
}

// Performance reports per-route latency percentiles and the latest samples.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.perfMon == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Performance monitoring disabled", nil)
		return
	}
	respondSuccess(w, PerformanceReport{
		Endpoints: h.perfMon.Stats(),
		Recent:    h.perfMon.Recent(50),
	}, models.Metadata{})
}
