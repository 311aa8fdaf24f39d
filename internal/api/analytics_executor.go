// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/rentalscope/internal/cache"
	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/models"
)

// result is what a JSON executor computes and caches.
type result struct {
	Data interface{}
	Rows *int
}

// binaryResult is what a file executor computes and caches.
type binaryResult struct {
	ContentType string
	Filename    string
	Body        []byte
}

// executeCached is the shared cache-check, compute, cache-store path of the
// dashboard endpoints. The key combines method with params, whose
// fingerprint is filled from the current dataset first.
func (h *Handler) executeCached(w http.ResponseWriter, r *http.Request, method string, params *DashboardParams, compute func(ctx context.Context) (result, error)) {
	start := time.Now()

	key, ok := h.cacheKey(w, r, method, params)
	if !ok {
		return
	}
	if v, hit := h.cacheGet(key); hit {
		if res, ok := v.(result); ok {
			respondSuccess(w, res.Data, models.Metadata{Cached: true, Rows: res.Rows})
			return
		}
	}

	res, err := compute(r.Context())
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	h.cacheSet(key, res)

	respondSuccess(w, res.Data, models.Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Rows:        res.Rows,
	})
}

// executeBinary is executeCached for file downloads. X-Cache reports
// whether the body came from the cache.
func (h *Handler) executeBinary(w http.ResponseWriter, r *http.Request, method string, params *DashboardParams, compute func(ctx context.Context) (binaryResult, error)) {
	key, ok := h.cacheKey(w, r, method, params)
	if !ok {
		return
	}
	if v, hit := h.cacheGet(key); hit {
		if res, ok := v.(binaryResult); ok {
			w.Header().Set("X-Cache", "HIT")
			respondBinary(w, res.ContentType, res.Filename, res.Body)
			return
		}
	}

	res, err := compute(r.Context())
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	h.cacheSet(key, res)

	w.Header().Set("X-Cache", "MISS")
	respondBinary(w, res.ContentType, res.Filename, res.Body)
}

// cacheKey loads the dataset to learn its fingerprint. It writes the error
// response and returns false when the dataset cannot be loaded.
func (h *Handler) cacheKey(w http.ResponseWriter, r *http.Request, method string, params *DashboardParams) (string, bool) {
	t, err := h.table(r.Context())
	if err != nil {
		respondPipelineError(w, err)
		return "", false
	}
	params.Fingerprint = t.Source().Fingerprint
	return cache.GenerateKey(method, params), true
}

func (h *Handler) cacheGet(key string) (interface{}, bool) {
	if h.cache == nil {
		return nil, false
	}
	return h.cache.Get(key)
}

func (h *Handler) cacheSet(key string, value interface{}) {
	if h.cache == nil {
		return
	}
	h.cache.Set(key, value)
	logging.Debug().Str("key", key).Msg("Cached response")
}
