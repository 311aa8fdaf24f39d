// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package dashboard

import (
	"github.com/tomtom215/rentalscope/internal/analytics"
	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/filter"
)

// Page text.
const (
	Title    = "Washington D.C. Bike Rentals Dashboard"
	Subtitle = "Interactive dashboard summarizing the analysis of the Washington D.C. bike rental data (Assignments I & II: EDA and visualizations)."
	Hint     = "Use the filters to explore how rentals change across years, seasons and working days."
)

// Defaults are the initial control values.
type Defaults struct {
	Years      []int                 `json:"years"`
	Seasons    []string              `json:"seasons"`
	WorkingDay filter.WorkingDayMode `json:"workingday"`
	Metric     analytics.Metric      `json:"metric"`
	XVariable  analytics.XVariable   `json:"x"`
}

// Controls lists the options for every dashboard control.
type Controls struct {
	Title           string                  `json:"title"`
	Subtitle        string                  `json:"subtitle"`
	Hint            string                  `json:"hint"`
	Years           []int                   `json:"years"`
	Seasons         []string                `json:"seasons"`
	WorkingDayModes []filter.WorkingDayMode `json:"workingday_modes"`
	Metrics         []analytics.Metric      `json:"metrics"`
	XVariables      []analytics.XVariable   `json:"x_variables"`
	Charts          []string                `json:"charts"`
	Defaults        Defaults                `json:"defaults"`
}

// NewControls derives the control options from the loaded table. Years are
// ascending and seasons keep their first appearance order; both default to
// everything present.
func NewControls(t *dataset.Table) Controls {
	def := filter.DefaultSelectors(t)
	return Controls{
		Title:           Title,
		Subtitle:        Subtitle,
		Hint:            Hint,
		Years:           t.Years(),
		Seasons:         t.Seasons(),
		WorkingDayModes: append([]filter.WorkingDayMode(nil), filter.WorkingDayModes...),
		Metrics:         append([]analytics.Metric(nil), analytics.Metrics...),
		XVariables:      append([]analytics.XVariable(nil), analytics.XVariables...),
		Charts:          append([]string(nil), ChartIDs...),
		Defaults: Defaults{
			Years:      def.Years,
			Seasons:    def.Seasons,
			WorkingDay: def.WorkingDay,
			Metric:     analytics.MetricCount,
			XVariable:  analytics.XTemp,
		},
	}
}
