// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type kindedError string

func (e kindedError) Error() string         { return string(e) }
func (e kindedError) LoadErrorKind() string { return string(e) }

func TestRecordDatasetLoad(t *testing.T) {
	before := testutil.ToFloat64(DatasetLoads.WithLabelValues("success"))
	RecordDatasetLoad(40*time.Millisecond, 10886, nil)

	if got := testutil.ToFloat64(DatasetLoads.WithLabelValues("success")); got != before+1 {
		t.Errorf("dataset_loads_total{success} = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(DatasetRows); got != 10886 {
		t.Errorf("dataset_rows = %v, want 10886", got)
	}
}

func TestRecordDatasetLoad_ErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		label string
	}{
		{"kinded error", kindedError("missing_file"), "missing_file"},
		{"wrapped cancel", fmt.Errorf("read: %w", context.Canceled), "canceled"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"plain error", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(DatasetLoads.WithLabelValues(tt.label))
			rowsBefore := testutil.ToFloat64(DatasetRows)

			RecordDatasetLoad(time.Millisecond, 0, tt.err)

			if got := testutil.ToFloat64(DatasetLoads.WithLabelValues(tt.label)); got != before+1 {
				t.Errorf("dataset_loads_total{%s} = %v, want %v", tt.label, got, before+1)
			}
			if got := testutil.ToFloat64(DatasetRows); got != rowsBefore {
				t.Errorf("dataset_rows changed on failure: %v -> %v", rowsBefore, got)
			}
		})
	}
}

func TestRecordDatasetCache(t *testing.T) {
	hits := testutil.ToFloat64(DatasetCacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(DatasetCacheLookups.WithLabelValues("miss"))

	RecordDatasetCache(true)
	RecordDatasetCache(true)
	RecordDatasetCache(false)

	if got := testutil.ToFloat64(DatasetCacheLookups.WithLabelValues("hit")); got != hits+2 {
		t.Errorf("hits = %v, want %v", got, hits+2)
	}
	if got := testutil.ToFloat64(DatasetCacheLookups.WithLabelValues("miss")); got != misses+1 {
		t.Errorf("misses = %v, want %v", got, misses+1)
	}
}

func TestRecordChartRender(t *testing.T) {
	before := testutil.ToFloat64(ChartRenderErrors.WithLabelValues("heatmap"))
	RecordChartRender("heatmap", 20*time.Millisecond, nil)
	RecordChartRender("heatmap", 20*time.Millisecond, errors.New("no data"))

	if got := testutil.ToFloat64(ChartRenderErrors.WithLabelValues("heatmap")); got != before+1 {
		t.Errorf("chart_render_errors_total = %v, want %v", got, before+1)
	}
}

func TestRecordDBQuery_ErrorTruncation(t *testing.T) {
	long := strings.Repeat("x", 80)
	RecordDBQuery("SELECT", "rentals", time.Millisecond, errors.New(long))

	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("SELECT", "rentals", long[:50])); got < 1 {
		t.Errorf("truncated error label not recorded, got %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/kpis", "200"))
	RecordAPIRequest("GET", "/api/v1/kpis", "200", 15*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/kpis", "200")); got != before+1 {
		t.Errorf("api_requests_total = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+2 {
		t.Errorf("active after two starts = %v, want %v", got, before+2)
	}
	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active after finish = %v, want %v", got, before)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("dashboard"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("dashboard"))

	RecordCacheLookup("dashboard", true)
	RecordCacheLookup("dashboard", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("dashboard")); got != hits+1 {
		t.Errorf("cache_hits_total = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("dashboard")); got != misses+1 {
		t.Errorf("cache_misses_total = %v, want %v", got, misses+1)
	}
}
