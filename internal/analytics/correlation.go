// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/rentalscope/internal/models"
)

// CorrelationMatrix holds pairwise Pearson coefficients. Values[i][j] is the
// correlation of Columns[i] and Columns[j].
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Correlation computes the Pearson matrix over NumericColumns. Entries that
// involve a column without variance, or a view with fewer than two rows, are
// NaN. The matrix is symmetric and its defined diagonal entries are exactly 1.
func Correlation(rows []models.RentalRecord) CorrelationMatrix {
	cols := append([]string(nil), NumericColumns...)
	m := CorrelationMatrix{Columns: cols, Values: make([][]float64, len(cols))}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(cols))
	}

	data := make([][]float64, len(cols))
	defined := make([]bool, len(cols))
	for c, name := range cols {
		data[c] = make([]float64, len(rows))
		for i := range rows {
			data[c][i] = numericColumn(name, &rows[i])
		}
		defined[c] = len(rows) >= 2 && stat.Variance(data[c], nil) > 0
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			v := math.NaN()
			switch {
			case !defined[i] || !defined[j]:
			case i == j:
				v = 1
			default:
				v = clampUnit(stat.Correlation(data[i], data[j], nil))
			}
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m
}

// clampUnit removes rounding overshoot past +-1.
func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
