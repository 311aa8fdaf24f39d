// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/database"
	"github.com/tomtom215/rentalscope/internal/dataset"
)

// Error codes written in APIError.Code.
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeDataLoad             = "DATA_LOAD_ERROR"
	ErrCodeWarehouseUnavailable = "WAREHOUSE_UNAVAILABLE"
	ErrCodeRender               = "RENDER_ERROR"
	ErrCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	ErrCodeRequestCanceled      = "REQUEST_CANCELED"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// respondPipelineError maps errors from the dataset, dashboard and
// database packages onto HTTP responses.
func respondPipelineError(w http.ResponseWriter, err error) {
	var loadErr *dataset.DataLoadError
	var rendErr *renderError
	switch {
	case errors.As(err, &loadErr):
		details := map[string]interface{}{
			"path": loadErr.Path,
			"kind": string(loadErr.Kind),
		}
		if loadErr.Row > 0 {
			details["row"] = loadErr.Row
		}
		if loadErr.Column != "" {
			details["column"] = loadErr.Column
		}
		respondErrorDetails(w, http.StatusServiceUnavailable, ErrCodeDataLoad, loadErr.Error(), details, err)
	case errors.Is(err, dashboard.ErrUnknownChart):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, database.ErrWarehouseUnavailable):
		respondError(w, http.StatusServiceUnavailable, ErrCodeWarehouseUnavailable, "Warehouse unavailable", err)
	case errors.As(err, &rendErr):
		respondError(w, http.StatusInternalServerError, ErrCodeRender, "Render failed", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, ErrCodeRequestCanceled, "Request canceled", err)
	default:
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", err)
	}
}
