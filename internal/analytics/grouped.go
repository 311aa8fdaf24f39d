// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package analytics

import (
	"sort"

	"github.com/tomtom215/rentalscope/internal/models"
)

// MonthlyPoint is the mean metric for one (year, month).
type MonthlyPoint struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// HourlyPoint is the mean count for one (hour, working-day flag).
type HourlyPoint struct {
	Hour       int     `json:"hour"`
	WorkingDay int     `json:"workingday"`
	Label      string  `json:"label"`
	Mean       float64 `json:"mean"`
}

// DayPeriodPoint is the mean count for one (day period, working-day flag).
type DayPeriodPoint struct {
	Period     string  `json:"period"`
	WorkingDay int     `json:"workingday"`
	Label      string  `json:"label"`
	Mean       float64 `json:"mean"`
}

// pairKey groups by two small integers.
type pairKey struct{ a, b int }

type accumulator struct {
	sum float64
	n   int
}

func (a accumulator) mean() float64 { return a.sum / float64(a.n) }

// meanBy groups rows by key and averages value. Only groups present in rows
// are returned, sorted by (a, b).
func meanBy(rows []models.RentalRecord, key func(*models.RentalRecord) pairKey, value func(*models.RentalRecord) float64) ([]pairKey, map[pairKey]float64) {
	groups := make(map[pairKey]accumulator)
	for i := range rows {
		k := key(&rows[i])
		acc := groups[k]
		acc.sum += value(&rows[i])
		acc.n++
		groups[k] = acc
	}

	keys := make([]pairKey, 0, len(groups))
	means := make(map[pairKey]float64, len(groups))
	for k, acc := range groups {
		keys = append(keys, k)
		means[k] = acc.mean()
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	return keys, means
}

// MonthlyTrend averages metric per (year, month), ordered by month then year.
func MonthlyTrend(rows []models.RentalRecord, metric Metric) []MonthlyPoint {
	keys, means := meanBy(rows,
		func(r *models.RentalRecord) pairKey { return pairKey{r.Month, r.Year} },
		metric.Value,
	)
	out := make([]MonthlyPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthlyPoint{Year: k.b, Month: k.a, Value: means[k]})
	}
	return out
}

// HourlyPattern averages count per (hour, working-day flag), ordered by hour
// then flag. At most 48 points.
func HourlyPattern(rows []models.RentalRecord) []HourlyPoint {
	keys, means := meanBy(rows,
		func(r *models.RentalRecord) pairKey { return pairKey{r.Hour, r.WorkingDay} },
		MetricCount.Value,
	)
	out := make([]HourlyPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, HourlyPoint{
			Hour:       k.a,
			WorkingDay: k.b,
			Label:      models.WorkingDayLabel(k.b),
			Mean:       means[k],
		})
	}
	return out
}

// DayPeriodSummary averages count per (day period, working-day flag),
// ordered night, morning, afternoon, evening then flag. At most 8 points.
func DayPeriodSummary(rows []models.RentalRecord) []DayPeriodPoint {
	keys, means := meanBy(rows,
		func(r *models.RentalRecord) pairKey {
			return pairKey{models.DayPeriodIndex(r.DayPeriod), r.WorkingDay}
		},
		MetricCount.Value,
	)
	out := make([]DayPeriodPoint, 0, len(keys))
	for _, k := range keys {
		if k.a < 0 {
			continue
		}
		out = append(out, DayPeriodPoint{
			Period:     models.DayPeriods[k.a],
			WorkingDay: k.b,
			Label:      models.WorkingDayLabel(k.b),
			Mean:       means[k],
		})
	}
	return out
}
