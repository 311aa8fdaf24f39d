// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/rentalscope/internal/models"
)

// timestampLayouts are tried in order. The first matches the published
// dataset ("2011-01-01 00:00:00").
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Annotate fills the derived calendar attributes of rec from its timestamp
// and season code. It reports false when the season code is out of range.
func Annotate(rec *models.RentalRecord) bool {
	name, ok := models.SeasonNameFor(rec.Season)
	if !ok {
		return false
	}
	ts := rec.Datetime
	rec.Year = ts.Year()
	rec.Month = int(ts.Month())
	rec.DayOfWeek = models.MondayBasedWeekday(ts.Weekday())
	rec.Hour = ts.Hour()
	rec.SeasonName = name
	rec.DayName = models.DayNameFor(rec.DayOfWeek)
	rec.DayPeriod = models.DayPeriodFor(rec.Hour)
	return true
}
