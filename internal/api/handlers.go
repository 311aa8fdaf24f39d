// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/rentalscope/internal/cache"
	"github.com/tomtom215/rentalscope/internal/config"
	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/database"
	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/events"
	"github.com/tomtom215/rentalscope/internal/filter"
	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/middleware"
	ws "github.com/tomtom215/rentalscope/internal/websocket"
)

// Version is reported by the health endpoint. Set at build time with
// -ldflags "-X github.com/tomtom215/rentalscope/internal/api.Version=...".
var Version = "dev"

// Warehouse is the DuckDB mirror of the dataset. *database.DB implements it.
type Warehouse interface {
	Ping(ctx context.Context) error
	LoadTable(ctx context.Context, t *dataset.Table) error
	Summary(ctx context.Context, sel filter.Selectors) ([]database.SeasonSummary, error)
	RowCount(ctx context.Context) (int64, error)
	Fingerprint() string
	Breaker() string
	LoadedAt() time.Time
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	pipeline  *dashboard.Pipeline
	warehouse Warehouse
	cache     cache.Cacher
	wsHub     *ws.Hub
	notify    events.Sink
	config    *config.Config
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time

	// mu guards the dataset state last announced to websocket clients.
	mu           sync.Mutex
	announced    string
	announcedErr string
}

// NewHandler wires the handler. warehouse, c and hub may be nil when the
// corresponding feature is disabled.
func NewHandler(pipeline *dashboard.Pipeline, warehouse Warehouse, c cache.Cacher, hub *ws.Hub, cfg *config.Config, perfMon *middleware.PerformanceMonitor) *Handler {
	h := &Handler{
		pipeline:  pipeline,
		warehouse: warehouse,
		cache:     c,
		wsHub:     hub,
		config:    cfg,
		perfMon:   perfMon,
		startTime: time.Now(),
	}
	if hub != nil {
		h.notify = hub
	}
	return h
}

// SetNotifier routes dataset notifications through n, typically an
// events.Bus in front of the hub. A nil n disables notifications.
func (h *Handler) SetNotifier(n events.Sink) {
	h.notify = n
}

// ClearCache drops every cached response.
func (h *Handler) ClearCache() {
	if h.cache != nil {
		h.cache.Clear()
	}
}

// table loads the dataset and, when its fingerprint differs from the one
// last announced, clears the response cache and notifies websocket clients.
func (h *Handler) table(ctx context.Context) (*dataset.Table, error) {
	t, err := h.pipeline.Table(ctx)
	if err != nil {
		h.announceError(err)
		return nil, err
	}
	h.announce(t, false)
	return t, nil
}

// announce reports whether a dataset_reloaded message was broadcast.
func (h *Handler) announce(t *dataset.Table, force bool) bool {
	src := t.Source()

	h.mu.Lock()
	changed := src.Fingerprint != h.announced
	h.announced = src.Fingerprint
	h.announcedErr = ""
	h.mu.Unlock()

	if !changed && !force {
		return false
	}
	h.ClearCache()

	logging.Info().
		Str("path", src.Path).
		Str("fingerprint", src.Fingerprint).
		Int("rows", t.Len()).
		Msg("Dataset version changed")

	if h.notify == nil {
		return false
	}
	return h.notify.BroadcastDatasetReloaded(ws.DatasetReloadedData{
		Path:        src.Path,
		Fingerprint: src.Fingerprint,
		Rows:        t.Len(),
		Years:       t.Years(),
		Seasons:     t.Seasons(),
		LoadedAt:    src.LoadedAt,
	})
}

// announceError broadcasts dataset_error once per distinct failure.
func (h *Handler) announceError(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	h.mu.Lock()
	repeated := err.Error() == h.announcedErr
	h.announcedErr = err.Error()
	h.mu.Unlock()

	if repeated || h.notify == nil {
		return
	}
	data := ws.DatasetErrorData{Path: h.pipeline.Path(), Message: err.Error()}
	var loadErr *dataset.DataLoadError
	if errors.As(err, &loadErr) {
		data.Kind = string(loadErr.Kind)
	}
	h.notify.BroadcastDatasetError(data)
}

// Sync loads the dataset, announces a new version if the file changed and
// mirrors it into the warehouse. It is run periodically by the warehouse
// sync service.
func (h *Handler) Sync(ctx context.Context) error {
	t, err := h.table(ctx)
	if err != nil {
		return err
	}
	if h.warehouse == nil {
		return nil
	}
	return h.warehouse.LoadTable(ctx, t)
}
