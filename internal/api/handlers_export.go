// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/render"
)

const (
	contentTypePNG  = "image/png"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// renderError marks failures of the render package so they map to
// RENDER_ERROR rather than INTERNAL_ERROR.
type renderError struct{ err error }

func (e *renderError) Error() string { return e.err.Error() }
func (e *renderError) Unwrap() error { return e.err }

// ChartPNG renders the {chart} chart as a PNG image.
func (h *Handler) ChartPNG(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	chart, ok := h.chartParam(w, r)
	if !ok {
		return
	}
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	h.executeFile(w, r, "png:"+chart, p, func(ctx context.Context) (binaryResult, error) {
		spec, _, err := h.pipeline.Chart(ctx, chart, p.Request())
		if err != nil {
			return binaryResult{}, err
		}
		body, err := render.Chart(spec, render.DefaultOptions())
		if err != nil {
			return binaryResult{}, &renderError{err}
		}
		return binaryResult{ContentType: contentTypePNG, Filename: chart + ".png", Body: body}, nil
	})
}

// PreviewXLSX exports the preview rows as a workbook.
func (h *Handler) PreviewXLSX(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	h.executeFile(w, r, "xlsx:preview", p, func(ctx context.Context) (binaryResult, error) {
		view, err := h.pipeline.View(ctx, p.Request().Selectors)
		if err != nil {
			return binaryResult{}, err
		}
		body, err := render.PreviewXLSX(dashboard.Preview(view.Rows, h.previewLimit(p)))
		if err != nil {
			return binaryResult{}, &renderError{err}
		}
		return binaryResult{ContentType: contentTypeXLSX, Filename: "preview.xlsx", Body: body}, nil
	})
}

// executeFile runs executeBinary, answering render failures with
// RENDER_ERROR.
func (h *Handler) executeFile(w http.ResponseWriter, r *http.Request, method string, p *DashboardParams, compute func(ctx context.Context) (binaryResult, error)) {
	h.executeBinary(w, r, method, p, func(ctx context.Context) (binaryResult, error) {
		res, err := compute(ctx)
		if err != nil {
			return res, err
		}
		if len(res.Body) == 0 {
			return res, &renderError{fmt.Errorf("%s: empty output", method)}
		}
		return res, nil
	})
}
