// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package models defines the rental record, its derived calendar attributes and
// the JSON envelope shared by every API endpoint.
package models

import (
	"time"
)

// RentalRecord is one hourly row of the bike rental dataset together with the
// attributes derived from its timestamp. Records are created by the dataset
// loader and never mutated afterwards.
type RentalRecord struct {
	Datetime   time.Time `json:"datetime"`
	Season     int       `json:"season"`
	WorkingDay int       `json:"workingday"`
	Temp       float64   `json:"temp"`
	ATemp      float64   `json:"atemp"`
	Humidity   float64   `json:"humidity"`
	Windspeed  float64   `json:"windspeed"`
	Casual     int       `json:"casual"`
	Registered int       `json:"registered"`
	Count      int       `json:"count"`

	Year       int    `json:"year"`
	Month      int    `json:"month"`
	DayOfWeek  int    `json:"dayofweek"`
	Hour       int    `json:"hour"`
	SeasonName string `json:"season_name"`
	DayName    string `json:"day_name"`
	DayPeriod  string `json:"day_period"`
}

// Season names keyed by the dataset's season code.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonFall   = "fall"
	SeasonWinter = "winter"
)

// Day periods partition the hour of day into four 6-hour buckets.
const (
	PeriodNight     = "night"
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"
)

// Labels used for the working-day flag in chart series.
const (
	LabelWorking    = "Working"
	LabelNonWorking = "Non-working"
)

// SeasonNames lists season names in season-code order.
var SeasonNames = []string{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

// DayPeriods lists the day periods in chronological order.
var DayPeriods = []string{PeriodNight, PeriodMorning, PeriodAfternoon, PeriodEvening}

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// SeasonNameFor maps a season code (1-4) to its name.
func SeasonNameFor(code int) (string, bool) {
	if code < 1 || code > 4 {
		return "", false
	}
	return SeasonNames[code-1], true
}

// IsSeasonName reports whether name is one of the four season names.
func IsSeasonName(name string) bool {
	for _, s := range SeasonNames {
		if s == name {
			return true
		}
	}
	return false
}

// DayNameFor maps a Monday-based day of week (0-6) to Mon..Sun.
func DayNameFor(dow int) string {
	if dow < 0 || dow > 6 {
		return ""
	}
	return dayNames[dow]
}

// MondayBasedWeekday converts time.Weekday (Sunday = 0) to Monday = 0.
func MondayBasedWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// DayPeriodFor buckets an hour: night [0,6), morning [6,12),
// afternoon [12,18), evening [18,24).
func DayPeriodFor(hour int) string {
	switch {
	case hour >= 0 && hour < 6:
		return PeriodNight
	case hour >= 6 && hour < 12:
		return PeriodMorning
	case hour >= 12 && hour < 18:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// DayPeriodIndex returns the chronological position of a period, or -1.
func DayPeriodIndex(period string) int {
	for i, p := range DayPeriods {
		if p == period {
			return i
		}
	}
	return -1
}

// WorkingDayLabel maps the working-day flag to its display label.
func WorkingDayLabel(flag int) string {
	if flag == 1 {
		return LabelWorking
	}
	return LabelNonWorking
}
