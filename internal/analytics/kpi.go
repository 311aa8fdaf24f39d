// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package analytics computes the dashboard aggregates over a filtered view.
//
// Every function is pure: it reads the rows it is given, never mutates them,
// and returns freshly allocated results. Empty input is valid and yields
// zero sums, NaN means and empty series.
package analytics

import (
	"math"

	"github.com/tomtom215/rentalscope/internal/models"
)

// KPISummary holds the headline figures of a filtered view.
type KPISummary struct {
	TotalCount      int64   `json:"total_count"`
	MeanCount       float64 `json:"mean_count"`
	TotalRegistered int64   `json:"total_registered"`
	TotalCasual     int64   `json:"total_casual"`
	Rows            int     `json:"rows"`
}

// Summarize sums the rental counts. MeanCount is NaN for an empty view.
func Summarize(rows []models.RentalRecord) KPISummary {
	var s KPISummary
	for i := range rows {
		s.TotalCount += int64(rows[i].Count)
		s.TotalRegistered += int64(rows[i].Registered)
		s.TotalCasual += int64(rows[i].Casual)
	}
	s.Rows = len(rows)
	if s.Rows == 0 {
		s.MeanCount = math.NaN()
	} else {
		s.MeanCount = float64(s.TotalCount) / float64(s.Rows)
	}
	return s
}
