// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/rentalscope/internal/analytics"
	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/models"
)

// KPIResponse pairs the raw KPI numbers with their formatted cards.
type KPIResponse struct {
	KPIs  dashboard.KPIView   `json:"kpis"`
	Cards []dashboard.KPICard `json:"cards"`
}

// PreviewResponse is the head of the filtered view.
type PreviewResponse struct {
	Rows  []models.RentalRecord `json:"rows"`
	Total int                   `json:"total"`
}

func (h *Handler) defaultSeed() int64 {
	if h.config == nil {
		return 0
	}
	return h.config.Dataset.ScatterSeed
}

// params parses the shared query string, writing a 400 on failure.
func (h *Handler) params(w http.ResponseWriter, r *http.Request) (*DashboardParams, bool) {
	p, apiErr := parseDashboardParams(r, h.defaultSeed())
	if apiErr != nil {
		respondValidation(w, apiErr)
		return nil, false
	}
	return p, true
}

// Controls lists the filter options and their defaults.
func (h *Handler) Controls(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	t, err := h.table(r.Context())
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondSuccess(w, dashboard.NewControls(t), models.Metadata{})
}

// Dashboard runs the whole pipeline.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	h.executeCached(w, r, "dashboard", p, func(ctx context.Context) (result, error) {
		out, err := h.pipeline.Run(ctx, p.Request())
		if err != nil {
			return result{}, err
		}
		return result{Data: out, Rows: intPtr(out.RowCount)}, nil
	})
}

// KPIs returns the four headline figures.
func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	h.executeCached(w, r, "kpis", p, func(ctx context.Context) (result, error) {
		view, err := h.pipeline.View(ctx, p.Request().Selectors)
		if err != nil {
			return result{}, err
		}
		s := analytics.Summarize(view.Rows)
		return result{
			Data: KPIResponse{KPIs: dashboard.NewKPIView(s), Cards: dashboard.FormatKPIs(s)},
			Rows: intPtr(len(view.Rows)),
		}, nil
	})
}

// Chart returns one chart specification, selected by the {chart} URL
// parameter.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	chart, ok := h.chartParam(w, r)
	if !ok {
		return
	}
	h.serveChart(w, r, chart)
}

func (h *Handler) serveChart(w http.ResponseWriter, r *http.Request, chart string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	h.executeCached(w, r, "chart:"+chart, p, func(ctx context.Context) (result, error) {
		spec, view, err := h.pipeline.Chart(ctx, chart, p.Request())
		if err != nil {
			return result{}, err
		}
		return result{Data: spec, Rows: intPtr(len(view.Rows))}, nil
	})
}

func (h *Handler) chartParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := ChartParams{Chart: chi.URLParam(r, "chart")}
	if apiErr := validateRequest(&p); apiErr != nil {
		respondErrorDetails(w, http.StatusNotFound, ErrCodeNotFound, apiErr.Message, apiErr.Details, nil)
		return "", false
	}
	return p.Chart, true
}

// Preview returns the first rows of the filtered view.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	h.executeCached(w, r, "preview", p, func(ctx context.Context) (result, error) {
		view, err := h.pipeline.View(ctx, p.Request().Selectors)
		if err != nil {
			return result{}, err
		}
		return result{
			Data: PreviewResponse{Rows: dashboard.Preview(view.Rows, h.previewLimit(p)), Total: len(view.Rows)},
			Rows: intPtr(len(view.Rows)),
		}, nil
	})
}

func (h *Handler) previewLimit(p *DashboardParams) int {
	if p.Limit > 0 {
		return p.Limit
	}
	return h.pipeline.PreviewLimit()
}
