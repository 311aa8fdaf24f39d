// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/rentalscope/internal/config"
	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/filter"
	"github.com/tomtom215/rentalscope/internal/models"
)

// testDBSemaphore serializes DuckDB usage across tests; concurrent CGO
// connections are slow under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T, cfg *config.WarehouseConfig) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	if cfg == nil {
		cfg = &config.WarehouseConfig{Enabled: true, Path: ":memory:", MaxMemory: "256MB", BatchSize: 2}
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { closeQuietly(db) })
	return db
}

func rental(ts string, season, workingDay, casual, registered int) models.RentalRecord {
	dt, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	r := models.RentalRecord{
		Datetime:   dt,
		Season:     season,
		WorkingDay: workingDay,
		Temp:       10,
		ATemp:      12,
		Humidity:   50,
		Windspeed:  5,
		Casual:     casual,
		Registered: registered,
		Count:      casual + registered,
	}
	dataset.Annotate(&r)
	return r
}

func testTable(fingerprint string, rows ...models.RentalRecord) *dataset.Table {
	return dataset.NewTable(dataset.Source{Path: "/data/train.csv", Fingerprint: fingerprint}, rows)
}

func fixtureTable() *dataset.Table {
	return testTable("fp-1",
		rental("2011-01-03 08:00:00", 1, 1, 4, 6),   // 2011 spring working, 10
		rental("2011-01-01 14:00:00", 1, 0, 12, 8),  // 2011 spring non-working, 20
		rental("2011-06-01 09:00:00", 2, 1, 10, 20), // 2011 summer working, 30
		rental("2012-01-02 10:00:00", 1, 1, 15, 25), // 2012 spring working, 40
		rental("2012-12-01 23:00:00", 4, 0, 1, 1),   // 2012 winter non-working, 2
	)
}

func allSelectors() filter.Selectors {
	return filter.Selectors{
		Years:      []int{2011, 2012},
		Seasons:    []string{"spring", "summer", "fall", "winter"},
		WorkingDay: filter.WorkingDayAll,
	}
}

func TestNewInMemory(t *testing.T) {
	db := setupTestDB(t, nil)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if got := db.Fingerprint(); got != "" {
		t.Errorf("Fingerprint() = %q, want empty before first load", got)
	}
	n, err := db.RowCount(context.Background())
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("RowCount() = %d, want 0", n)
	}
	if got := db.Breaker(); got != "closed" {
		t.Errorf("Breaker() = %q, want closed", got)
	}
}

func TestLoadTableAndSummary(t *testing.T) {
	db := setupTestDB(t, nil)
	ctx := context.Background()

	if err := db.LoadTable(ctx, fixtureTable()); err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	n, err := db.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 5 {
		t.Errorf("RowCount() = %d, want 5", n)
	}

	got, err := db.Summary(ctx, allSelectors())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	want := []SeasonSummary{
		{Year: 2011, Season: 1, SeasonName: "spring", Rows: 2, TotalCount: 30, TotalCasual: 16, TotalRegistered: 14, MeanCount: 15},
		{Year: 2011, Season: 2, SeasonName: "summer", Rows: 1, TotalCount: 30, TotalCasual: 10, TotalRegistered: 20, MeanCount: 30},
		{Year: 2012, Season: 1, SeasonName: "spring", Rows: 1, TotalCount: 40, TotalCasual: 15, TotalRegistered: 25, MeanCount: 40},
		{Year: 2012, Season: 4, SeasonName: "winter", Rows: 1, TotalCount: 2, TotalCasual: 1, TotalRegistered: 1, MeanCount: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Summary() returned %d groups, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Summary()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSummaryFilters(t *testing.T) {
	db := setupTestDB(t, nil)
	ctx := context.Background()
	if err := db.LoadTable(ctx, fixtureTable()); err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	tests := []struct {
		name       string
		sel        filter.Selectors
		wantGroups int
		wantTotal  int64
	}{
		{"all", allSelectors(), 4, 102},
		{"2011 only", filter.Selectors{Years: []int{2011}, Seasons: []string{"spring", "summer"}}, 2, 60},
		{"working days", filter.Selectors{Years: []int{2011, 2012}, Seasons: []string{"spring"}, WorkingDay: filter.WorkingDaysOnly}, 2, 50},
		{"non-working days", filter.Selectors{Years: []int{2011, 2012}, Seasons: []string{"spring", "winter"}, WorkingDay: filter.NonWorkingDayOnly}, 2, 22},
		{"no years", filter.Selectors{Years: []int{}, Seasons: []string{"spring"}}, 0, 0},
		{"no seasons", filter.Selectors{Years: []int{2011}, Seasons: nil}, 0, 0},
		{"absent year", filter.Selectors{Years: []int{2013}, Seasons: []string{"spring"}}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Summary(ctx, tt.sel)
			if err != nil {
				t.Fatalf("Summary() error = %v", err)
			}
			if got == nil {
				t.Fatal("Summary() returned nil slice, want empty")
			}
			if len(got) != tt.wantGroups {
				t.Errorf("Summary() groups = %d, want %d", len(got), tt.wantGroups)
			}
			var total int64
			for _, s := range got {
				total += s.TotalCount
			}
			if total != tt.wantTotal {
				t.Errorf("total count = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestLoadTableSkipsSameFingerprint(t *testing.T) {
	db := setupTestDB(t, nil)
	ctx := context.Background()

	if err := db.LoadTable(ctx, fixtureTable()); err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	first := db.LoadedAt()
	if first.IsZero() {
		t.Fatal("LoadedAt() is zero after load")
	}

	if err := db.LoadTable(ctx, fixtureTable()); err != nil {
		t.Fatalf("second LoadTable() error = %v", err)
	}
	if !db.LoadedAt().Equal(first) {
		t.Errorf("LoadedAt() changed on identical fingerprint: %v -> %v", first, db.LoadedAt())
	}
}

func TestLoadTableReplacesContents(t *testing.T) {
	db := setupTestDB(t, nil)
	ctx := context.Background()

	if err := db.LoadTable(ctx, fixtureTable()); err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	smaller := testTable("fp-2", rental("2012-07-01 12:00:00", 3, 1, 5, 5))
	if err := db.LoadTable(ctx, smaller); err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	if got := db.Fingerprint(); got != "fp-2" {
		t.Errorf("Fingerprint() = %q, want fp-2", got)
	}
	n, err := db.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RowCount() = %d, want 1", n)
	}
}

func TestFileBackedWarehouseRestoresFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rentals.duckdb")
	cfg := &config.WarehouseConfig{Enabled: true, Path: path, BatchSize: 100}

	db := setupTestDB(t, cfg)
	if err := db.LoadTable(context.Background(), fixtureTable()); err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(cfg)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer closeQuietly(reopened)

	if got := reopened.Fingerprint(); got != "fp-1" {
		t.Errorf("Fingerprint() after reopen = %q, want fp-1", got)
	}
	n, err := reopened.RowCount(context.Background())
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if n != 5 {
		t.Errorf("RowCount() after reopen = %d, want 5", n)
	}
}

func TestClosedWarehouseIsUnavailable(t *testing.T) {
	db := setupTestDB(t, nil)
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	_, err := db.Summary(context.Background(), allSelectors())
	if !errors.Is(err, ErrWarehouseUnavailable) {
		t.Errorf("Summary() on closed db error = %v, want ErrWarehouseUnavailable", err)
	}
	if err := db.Ping(context.Background()); !errors.Is(err, ErrWarehouseUnavailable) {
		t.Errorf("Ping() on closed db error = %v, want ErrWarehouseUnavailable", err)
	}
}

func TestBuildSummaryQuery(t *testing.T) {
	sel := filter.Selectors{
		Years:      []int{2011, 2012},
		Seasons:    []string{"fall"},
		WorkingDay: filter.NonWorkingDayOnly,
	}
	_, args := buildSummaryQuery(sel)
	want := []interface{}{2011, 2012, "fall", 0}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}

	sel.WorkingDay = filter.WorkingDayAll
	if _, args := buildSummaryQuery(sel); len(args) != 3 {
		t.Errorf("WorkingDayAll should add no workingday argument, got %v", args)
	}
}

func TestBreakerStartsClosed(t *testing.T) {
	db := setupTestDB(t, nil)
	if got := stateToFloat(db.breaker.cb.State()); got != 0 {
		t.Errorf("stateToFloat(closed) = %v, want 0", got)
	}
}
