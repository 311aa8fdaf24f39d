// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package analytics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/models"
)

func record(ts string, season, workingDay, casual, registered int, temp float64) models.RentalRecord {
	dt, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	r := models.RentalRecord{
		Datetime:   dt,
		Season:     season,
		WorkingDay: workingDay,
		Temp:       temp,
		ATemp:      temp + 2,
		Humidity:   50,
		Windspeed:  10,
		Casual:     casual,
		Registered: registered,
		Count:      casual + registered,
	}
	dataset.Annotate(&r)
	return r
}

func fixture() []models.RentalRecord {
	return []models.RentalRecord{
		record("2011-01-01 03:00:00", 1, 0, 2, 8, 8.2),      // count 10
		record("2011-01-01 14:00:00", 1, 0, 30, 70, 12.3),   // count 100
		record("2011-01-03 08:00:00", 1, 1, 10, 190, 6.5),   // count 200
		record("2011-02-07 08:00:00", 1, 1, 5, 295, 9.0),    // count 300
		record("2012-01-02 19:00:00", 1, 1, 20, 380, 10.1),  // count 400
		record("2012-07-07 14:00:00", 3, 0, 150, 350, 31.2), // count 500
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixture())
	if got.TotalCount != 1510 {
		t.Errorf("TotalCount = %d, want 1510", got.TotalCount)
	}
	if got.TotalCasual != 217 || got.TotalRegistered != 1293 {
		t.Errorf("casual/registered = %d/%d, want 217/1293", got.TotalCasual, got.TotalRegistered)
	}
	if got.TotalCasual+got.TotalRegistered != got.TotalCount {
		t.Error("casual + registered != total")
	}
	if math.Abs(got.MeanCount-1510.0/6) > 1e-9 {
		t.Errorf("MeanCount = %v, want %v", got.MeanCount, 1510.0/6)
	}
	if got.Rows != 6 {
		t.Errorf("Rows = %d, want 6", got.Rows)
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	if got.TotalCount != 0 || got.TotalCasual != 0 || got.TotalRegistered != 0 {
		t.Errorf("empty sums = %+v, want zeros", got)
	}
	if !math.IsNaN(got.MeanCount) {
		t.Errorf("empty MeanCount = %v, want NaN", got.MeanCount)
	}
}

func TestMonthlyTrend(t *testing.T) {
	got := MonthlyTrend(fixture(), MetricCount)
	want := []MonthlyPoint{
		{Year: 2011, Month: 1, Value: (10 + 100 + 200) / 3.0},
		{Year: 2012, Month: 1, Value: 400},
		{Year: 2011, Month: 2, Value: 300},
		{Year: 2012, Month: 7, Value: 500},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MonthlyTrend(count) = %+v, want %+v", got, want)
	}

	casual := MonthlyTrend(fixture(), MetricCasual)
	if casual[0].Value != 14 {
		t.Errorf("MonthlyTrend(casual)[0] = %v, want 14", casual[0].Value)
	}
	if len(MonthlyTrend(nil, MetricRegistered)) != 0 {
		t.Error("MonthlyTrend(nil) not empty")
	}
}

func TestHourlyPattern(t *testing.T) {
	got := HourlyPattern(fixture())
	want := []HourlyPoint{
		{Hour: 3, WorkingDay: 0, Label: "Non-working", Mean: 10},
		{Hour: 8, WorkingDay: 1, Label: "Working", Mean: 250},
		{Hour: 14, WorkingDay: 0, Label: "Non-working", Mean: 300},
		{Hour: 19, WorkingDay: 1, Label: "Working", Mean: 400},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HourlyPattern = %+v, want %+v", got, want)
	}
}

func TestDayPeriodSummary(t *testing.T) {
	got := DayPeriodSummary(fixture())
	want := []DayPeriodPoint{
		{Period: "night", WorkingDay: 0, Label: "Non-working", Mean: 10},
		{Period: "morning", WorkingDay: 1, Label: "Working", Mean: 250},
		{Period: "afternoon", WorkingDay: 0, Label: "Non-working", Mean: 300},
		{Period: "evening", WorkingDay: 1, Label: "Working", Mean: 400},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DayPeriodSummary = %+v, want %+v", got, want)
	}
	if len(got) > 8 {
		t.Errorf("DayPeriodSummary returned %d rows, want at most 8", len(got))
	}
}

func TestParseMetricAndXVariable(t *testing.T) {
	if m, err := ParseMetric(""); err != nil || m != MetricCount {
		t.Errorf("ParseMetric(\"\") = %q, %v", m, err)
	}
	if m, err := ParseMetric("Registered"); err != nil || m != MetricRegistered {
		t.Errorf("ParseMetric(Registered) = %q, %v", m, err)
	}
	if _, err := ParseMetric("total"); err == nil {
		t.Error("ParseMetric(total) succeeded")
	}
	if x, err := ParseXVariable(""); err != nil || x != XTemp {
		t.Errorf("ParseXVariable(\"\") = %q, %v", x, err)
	}
	if _, err := ParseXVariable("pressure"); err == nil {
		t.Error("ParseXVariable(pressure) succeeded")
	}
}

func TestCorrelation(t *testing.T) {
	m := Correlation(fixture())
	if !reflect.DeepEqual(m.Columns, NumericColumns) {
		t.Fatalf("Columns = %v", m.Columns)
	}

	idx := map[string]int{}
	for i, c := range m.Columns {
		idx[c] = i
	}
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a, b := m.Values[i][j], m.Values[j][i]
			if !(a == b || (math.IsNaN(a) && math.IsNaN(b))) {
				t.Errorf("matrix not symmetric at (%d,%d): %v vs %v", i, j, a, b)
			}
		}
	}

	// humidity and windspeed are constant in the fixture.
	for _, c := range []string{"humidity", "windspeed"} {
		if !math.IsNaN(m.Values[idx[c]][idx["count"]]) {
			t.Errorf("corr(%s, count) = %v, want NaN", c, m.Values[idx[c]][idx["count"]])
		}
		if !math.IsNaN(m.Values[idx[c]][idx[c]]) {
			t.Errorf("corr(%s, %s) = %v, want NaN", c, c, m.Values[idx[c]][idx[c]])
		}
	}
	for _, c := range []string{"temp", "atemp", "casual", "registered", "count"} {
		if m.Values[idx[c]][idx[c]] != 1 {
			t.Errorf("diagonal %s = %v, want 1", c, m.Values[idx[c]][idx[c]])
		}
	}
	// atemp = temp + 2 exactly.
	if v := m.Values[idx["temp"]][idx["atemp"]]; math.Abs(v-1) > 1e-12 {
		t.Errorf("corr(temp, atemp) = %v, want 1", v)
	}
}

func TestCorrelation_TooFewRows(t *testing.T) {
	m := Correlation(fixture()[:1])
	for i := range m.Values {
		for j := range m.Values[i] {
			if !math.IsNaN(m.Values[i][j]) {
				t.Fatalf("single-row Values[%d][%d] = %v, want NaN", i, j, m.Values[i][j])
			}
		}
	}
	if empty := Correlation(nil); len(empty.Values) != len(NumericColumns) {
		t.Errorf("empty matrix has %d rows, want %d", len(empty.Values), len(NumericColumns))
	}
}
