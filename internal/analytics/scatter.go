// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package analytics

import (
	"math/rand"
	"sort"

	"github.com/tomtom215/rentalscope/internal/models"
)

// DefaultScatterLimit caps the number of points drawn on the scatter chart.
const DefaultScatterLimit = 5000

// ScatterPoint is one sampled row projected to the chart axes.
type ScatterPoint struct {
	X      float64 `json:"x"`
	Count  int     `json:"count"`
	Season string  `json:"season"`
}

// TrendPoint is one point of a smoothed trend line.
type TrendPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrendLine is the LOWESS fit for one season's sampled points.
type TrendLine struct {
	Season string       `json:"season"`
	Points []TrendPoint `json:"points"`
}

// ScatterResult is the sampled scatter data with per-season trends.
type ScatterResult struct {
	X      XVariable      `json:"x"`
	Seed   int64          `json:"seed"`
	Points []ScatterPoint `json:"points"`
	Trends []TrendLine    `json:"trends"`
}

// SampleIndices picks min(limit, n) distinct indices from [0, n) using a
// generator seeded with seed, returned in ascending order. When the sample
// covers every row all indices are returned without consulting the
// generator.
func SampleIndices(n, limit int, seed int64) []int {
	if limit <= 0 {
		limit = DefaultScatterLimit
	}
	if n <= limit {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: seeded sample for display
	idx := rng.Perm(n)[:limit]
	sort.Ints(idx)
	return idx
}

// ScatterSample draws the scatter sample and fits one trend line per season
// in order of first appearance within the sample.
func ScatterSample(rows []models.RentalRecord, x XVariable, seed int64, limit int) ScatterResult {
	idx := SampleIndices(len(rows), limit, seed)

	res := ScatterResult{
		X:      x,
		Seed:   seed,
		Points: make([]ScatterPoint, 0, len(idx)),
		Trends: []TrendLine{},
	}

	type series struct{ xs, ys []float64 }
	bySeason := make(map[string]*series)
	var seasons []string

	for _, i := range idx {
		r := &rows[i]
		xv := x.Value(r)
		res.Points = append(res.Points, ScatterPoint{X: xv, Count: r.Count, Season: r.SeasonName})

		s, ok := bySeason[r.SeasonName]
		if !ok {
			s = &series{}
			bySeason[r.SeasonName] = s
			seasons = append(seasons, r.SeasonName)
		}
		s.xs = append(s.xs, xv)
		s.ys = append(s.ys, float64(r.Count))
	}

	for _, name := range seasons {
		s := bySeason[name]
		xs, fit := Lowess(s.xs, s.ys, DefaultLowessFrac, DefaultLowessIterations)
		line := TrendLine{Season: name, Points: make([]TrendPoint, len(xs))}
		for i := range xs {
			line.Points[i] = TrendPoint{X: xs[i], Y: fit[i]}
		}
		res.Trends = append(res.Trends, line)
	}
	return res
}
