// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package dataset

import (
	"sort"
	"time"

	"github.com/tomtom215/rentalscope/internal/models"
)

// Source identifies where a table came from.
type Source struct {
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	LoadedAt    time.Time `json:"loaded_at"`
	Size        int64     `json:"size_bytes"`
	ModTime     time.Time `json:"modified_at"`
}

// Table is the immutable annotated dataset. It is shared between concurrent
// requests, so nothing reachable from it may be modified after construction.
type Table struct {
	rows    []models.RentalRecord
	source  Source
	years   []int
	seasons []string
}

// NewTable builds a table from already-annotated rows.
func NewTable(src Source, rows []models.RentalRecord) *Table {
	seenYear := make(map[int]struct{})
	seenSeason := make(map[string]struct{})
	var years []int
	var seasons []string
	for i := range rows {
		if _, ok := seenYear[rows[i].Year]; !ok {
			seenYear[rows[i].Year] = struct{}{}
			years = append(years, rows[i].Year)
		}
		if _, ok := seenSeason[rows[i].SeasonName]; !ok {
			seenSeason[rows[i].SeasonName] = struct{}{}
			seasons = append(seasons, rows[i].SeasonName)
		}
	}
	sort.Ints(years)

	return &Table{
		rows:    rows[:len(rows):len(rows)],
		source:  src,
		years:   years,
		seasons: seasons,
	}
}

// Rows returns the records in file order. Callers must treat the slice as
// read-only; its capacity is clipped so appends never alias the table.
func (t *Table) Rows() []models.RentalRecord {
	return t.rows
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.rows)
}

// Source returns the table's source identity.
func (t *Table) Source() Source {
	return t.source
}

// Years returns the distinct years in ascending order.
func (t *Table) Years() []int {
	return append([]int(nil), t.years...)
}

// Seasons returns the distinct season names in order of first appearance.
func (t *Table) Seasons() []string {
	return append([]string(nil), t.seasons...)
}
