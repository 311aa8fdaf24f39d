// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/database"
	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/models"
	ws "github.com/tomtom215/rentalscope/internal/websocket"
)

// DatasetInfo describes the loaded dataset.
type DatasetInfo struct {
	Source    dataset.Source `json:"source"`
	Rows      int            `json:"rows"`
	Years     []int          `json:"years"`
	Seasons   []string       `json:"seasons"`
	Announced bool           `json:"announced,omitempty"`

	// WarehouseError is set when the reload succeeded but the warehouse
	// could not be refreshed.
	WarehouseError string `json:"warehouse_error,omitempty"`
}

func newDatasetInfo(t *dataset.Table) DatasetInfo {
	return DatasetInfo{
		Source:  t.Source(),
		Rows:    t.Len(),
		Years:   t.Years(),
		Seasons: t.Seasons(),
	}
}

// Dataset describes the currently loaded dataset.
func (h *Handler) Dataset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	t, err := h.table(r.Context())
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondSuccess(w, newDatasetInfo(t), models.Metadata{Rows: intPtr(t.Len())})
}

// DatasetSummary returns per year and season totals computed by the
// warehouse. Selectors are resolved against the loaded table first, so an
// absent years or seasons parameter means every value in the data.
func (h *Handler) DatasetSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.warehouse == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeWarehouseUnavailable, "Warehouse disabled", nil)
		return
	}
	p, ok := h.params(w, r)
	if !ok {
		return
	}

	h.executeCached(w, r, "summary", p, func(ctx context.Context) (result, error) {
		t, err := h.pipeline.Table(ctx)
		if err != nil {
			return result{}, err
		}
		if h.warehouse.Fingerprint() != t.Source().Fingerprint {
			if err := h.warehouse.LoadTable(ctx, t); err != nil {
				return result{}, err
			}
		}
		sel := dashboard.ResolveSelectors(t, p.Request().Selectors)
		rows, err := h.warehouse.Summary(ctx, sel)
		if err != nil {
			return result{}, err
		}
		if rows == nil {
			rows = []database.SeasonSummary{}
		}
		return result{Data: rows, Rows: intPtr(len(rows))}, nil
	})
}

// ReloadDataset drops the cached table and response cache, reloads the file
// and notifies websocket clients.
func (h *Handler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	start := time.Now()

	t, err := h.pipeline.Reload(r.Context())
	if err != nil {
		h.ClearCache()
		h.announceError(err)
		respondPipelineError(w, err)
		return
	}

	info := newDatasetInfo(t)
	info.Announced = h.announce(t, true)

	if h.warehouse != nil {
		if err := h.warehouse.LoadTable(r.Context(), t); err != nil {
			info.WarehouseError = err.Error()
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Warehouse refresh after reload failed")
		}
	}

	logging.Ctx(r.Context()).Info().
		Str("fingerprint", info.Source.Fingerprint).
		Int("rows", info.Rows).
		Dur("duration", time.Since(start)).
		Msg("Dataset reloaded")

	respondSuccess(w, info, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Rows:        intPtr(info.Rows),
	})
}

// WebSocket upgrades the connection and subscribes it to dataset
// notifications.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := ws.Upgrader(h.checkWebSocketOrigin)
	if err := ws.ServeWS(h.wsHub, &upgrader, w, r); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket connection failed")
	}
}

// checkWebSocketOrigin accepts browser origins listed in CORS origins.
// Requests without an Origin header are rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if h.config == nil {
		return true
	}
	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
