// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/rentalscope/internal/analytics"
	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/filter"
	"github.com/tomtom215/rentalscope/internal/models"
	"github.com/tomtom215/rentalscope/internal/validation"
)

// DashboardParams is the validated query string of the dashboard endpoints.
// It doubles as the response cache key, so every field that changes the
// result must be present.
type DashboardParams struct {
	Years      []int    `json:"years"`
	Seasons    []string `json:"seasons" validate:"omitempty,dive,season"`
	WorkingDay string   `json:"workingday" validate:"omitempty,workingday"`
	Metric     string   `json:"metric" validate:"omitempty,metric"`
	X          string   `json:"x" validate:"omitempty,xvariable"`
	Seed       int64    `json:"seed"`
	Limit      int      `json:"limit" validate:"omitempty,gte=1,lte=10000"`

	// Fingerprint pins cached responses to one dataset version.
	Fingerprint string `json:"fingerprint"`
}

// ChartParams selects one chart.
type ChartParams struct {
	Chart string `validate:"required,chartid"`
}

// listParam joins repeated and comma-separated values. ok is false when the
// parameter is absent.
func listParam(r *http.Request, key string) (values []string, ok bool) {
	raw, ok := r.URL.Query()[key]
	if !ok {
		return nil, false
	}
	values = []string{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values, true
}

// parseDashboardParams reads the shared query vocabulary. defaultSeed is
// used when seed is absent.
func parseDashboardParams(r *http.Request, defaultSeed int64) (*DashboardParams, *models.APIError) {
	q := r.URL.Query()
	p := &DashboardParams{
		WorkingDay: q.Get("workingday"),
		Metric:     q.Get("metric"),
		X:          q.Get("x"),
		Seed:       defaultSeed,
	}

	if years, ok := listParam(r, "years"); ok {
		parsed, err := filter.ParseYears(strings.Join(years, ","))
		if err != nil {
			return nil, toAPIError(validation.NewFieldError("years", "year", strings.Join(years, ","), err.Error()))
		}
		p.Years = parsed
	}
	if seasons, ok := listParam(r, "seasons"); ok {
		p.Seasons = seasons
	}
	if raw := q.Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, toAPIError(validation.NewFieldError("seed", "int", raw, "seed must be an integer"))
		}
		p.Seed = seed
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, toAPIError(validation.NewFieldError("limit", "int", raw, "limit must be an integer"))
		}
		p.Limit = limit
	}

	if apiErr := validateRequest(p); apiErr != nil {
		return nil, apiErr
	}

	// Normalize after validation so equal selections share a cache key.
	if p.Seasons != nil {
		seasons, err := filter.ParseSeasons(strings.Join(p.Seasons, ","))
		if err != nil {
			return nil, toAPIError(validation.NewFieldError("seasons", "season", p.Seasons, err.Error()))
		}
		p.Seasons = seasons
	}
	mode, _ := filter.ParseWorkingDayMode(p.WorkingDay)
	metric, _ := analytics.ParseMetric(p.Metric)
	x, _ := analytics.ParseXVariable(p.X)
	p.WorkingDay = mode.Token()
	p.Metric = string(metric)
	p.X = string(x)
	return p, nil
}

// Request converts validated params into a pipeline request.
func (p *DashboardParams) Request() dashboard.Request {
	// Inputs were validated, so parse errors cannot occur here.
	mode, _ := filter.ParseWorkingDayMode(p.WorkingDay)
	metric, _ := analytics.ParseMetric(p.Metric)
	x, _ := analytics.ParseXVariable(p.X)
	return dashboard.Request{
		Selectors: filter.Selectors{
			Years:      p.Years,
			Seasons:    p.Seasons,
			WorkingDay: mode,
		},
		Metric:       metric,
		XVariable:    x,
		Seed:         p.Seed,
		PreviewLimit: p.Limit,
	}
}
