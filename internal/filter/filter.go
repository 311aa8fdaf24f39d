// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package filter selects the subset of rental records shown by the dashboard.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/models"
)

// WorkingDayMode restricts rows by their working-day flag.
type WorkingDayMode string

const (
	WorkingDayAll     WorkingDayMode = "All"
	WorkingDaysOnly   WorkingDayMode = "Working days"
	NonWorkingDayOnly WorkingDayMode = "Non-working days"
)

// WorkingDayModes lists the modes in control display order.
var WorkingDayModes = []WorkingDayMode{WorkingDayAll, WorkingDaysOnly, NonWorkingDayOnly}

// ParseWorkingDayMode accepts the display labels and the short tokens
// all, working and non-working (case-insensitive). An empty string is All.
func ParseWorkingDayMode(s string) (WorkingDayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return WorkingDayAll, nil
	case "working", "working days", "working-days", "1":
		return WorkingDaysOnly, nil
	case "non-working", "non-working days", "nonworking", "0":
		return NonWorkingDayOnly, nil
	default:
		return "", fmt.Errorf("unknown working day mode %q", s)
	}
}

// Token returns the short query-string form of the mode.
func (m WorkingDayMode) Token() string {
	switch m {
	case WorkingDaysOnly:
		return "working"
	case NonWorkingDayOnly:
		return "non-working"
	default:
		return "all"
	}
}

// Flag returns the working-day flag the mode keeps. ok is false for
// WorkingDayAll, which keeps both.
func (m WorkingDayMode) Flag() (flag int, ok bool) {
	switch m {
	case WorkingDaysOnly:
		return 1, true
	case NonWorkingDayOnly:
		return 0, true
	default:
		return 0, false
	}
}

func (m WorkingDayMode) matches(flag int) bool {
	switch m {
	case WorkingDaysOnly:
		return flag == 1
	case NonWorkingDayOnly:
		return flag == 0
	default:
		return true
	}
}

// Selectors is the user's current filter choice. Empty Years or Seasons
// select nothing.
type Selectors struct {
	Years      []int          `json:"years"`
	Seasons    []string       `json:"seasons"`
	WorkingDay WorkingDayMode `json:"workingday"`
}

// DefaultSelectors selects every year and season present in the table with
// mode All.
func DefaultSelectors(t *dataset.Table) Selectors {
	return Selectors{
		Years:      t.Years(),
		Seasons:    t.Seasons(),
		WorkingDay: WorkingDayAll,
	}
}

// Apply returns the rows matching sel in their original order. The result
// is never nil. When every row matches, the input slice itself is returned.
func Apply(rows []models.RentalRecord, sel Selectors) []models.RentalRecord {
	if len(sel.Years) == 0 || len(sel.Seasons) == 0 {
		return []models.RentalRecord{}
	}

	years := make(map[int]struct{}, len(sel.Years))
	for _, y := range sel.Years {
		years[y] = struct{}{}
	}
	seasons := make(map[string]struct{}, len(sel.Seasons))
	for _, s := range sel.Seasons {
		seasons[s] = struct{}{}
	}

	out := make([]models.RentalRecord, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if _, ok := years[r.Year]; !ok {
			continue
		}
		if _, ok := seasons[r.SeasonName]; !ok {
			continue
		}
		if !sel.WorkingDay.matches(r.WorkingDay) {
			continue
		}
		out = append(out, *r)
	}
	if len(out) == len(rows) && rows != nil {
		return rows
	}
	return out
}

// ParseYears parses a comma-separated year list. Blank items are skipped, so
// an empty string yields an empty (non-nil) list.
func ParseYears(raw string) ([]int, error) {
	years := []int{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}

// ParseSeasons parses a comma-separated season list, lower-casing names.
// Unknown names are rejected.
func ParseSeasons(raw string) ([]string, error) {
	seasons := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !models.IsSeasonName(part) {
			return nil, fmt.Errorf("unknown season %q", part)
		}
		seasons = append(seasons, part)
	}
	return seasons, nil
}
