// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/tomtom215/rentalscope/internal/database"
	"github.com/tomtom215/rentalscope/internal/events"
	"github.com/tomtom215/rentalscope/internal/filter"
	ws "github.com/tomtom215/rentalscope/internal/websocket"
)

type dashboardData struct {
	RowCount int `json:"row_count"`
	Charts   []struct {
		ID string `json:"id"`
	} `json:"charts"`
	Preview []struct{} `json:"preview"`
}

func TestDashboard_Defaults(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("ETag header missing")
	}

	resp := decode(t, rec)
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	var data dashboardData
	decodeData(t, resp, &data)
	if data.RowCount != 240 {
		t.Errorf("row_count = %d, want 240", data.RowCount)
	}
	if len(data.Charts) != 5 {
		t.Errorf("charts = %d, want 5", len(data.Charts))
	}
	if len(data.Preview) != 200 {
		t.Errorf("preview = %d rows, want 200", len(data.Preview))
	}
	if resp.Metadata.Rows == nil || *resp.Metadata.Rows != 240 {
		t.Errorf("metadata.rows = %v, want 240", resp.Metadata.Rows)
	}
}

func TestDashboard_Selections(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"absent years selects all", "", 240},
		{"one year", "?years=2011", 120},
		{"repeated years", "?years=2011&years=2012", 240},
		{"empty years selects none", "?years=", 0},
		{"empty seasons selects none", "?seasons=", 0},
		{"season case-insensitive", "?seasons=Spring", 60},
		{"working days", "?workingday=working", 160},
		{"non-working days", "?workingday=non-working", 80},
		{"year absent from data", "?years=1999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/dashboard"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var data dashboardData
			decodeData(t, decode(t, rec), &data)
			if data.RowCount != tt.want {
				t.Errorf("row_count = %d, want %d", data.RowCount, tt.want)
			}
		})
	}
}

func TestDashboard_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		query string
		field string
	}{
		{"?seasons=monsoon", "Seasons[0]"},
		{"?workingday=sometimes", "WorkingDay"},
		{"?metric=revenue", "Metric"},
		{"?x=pressure", "X"},
		{"?seed=abc", "seed"},
		{"?years=20x1", "years"},
		{"?limit=20000", "Limit"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/dashboard"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			resp := decode(t, rec)
			if resp.Error == nil || resp.Error.Code != ErrCodeValidation {
				t.Fatalf("error = %+v, want VALIDATION_ERROR", resp.Error)
			}
			if got := resp.Error.Details["field"]; got != tt.field {
				t.Errorf("details.field = %v, want %s", got, tt.field)
			}
		})
	}
}

func TestDashboard_DataLoadError(t *testing.T) {
	env := newTestEnv(t, envOptions{missingFile: true})

	for _, target := range []string{"/api/v1/dashboard", "/api/v1/kpis", "/api/v1/controls", "/api/v1/charts/hourly.png"} {
		t.Run(target, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, target)
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			resp := decode(t, rec)
			if resp.Error == nil || resp.Error.Code != ErrCodeDataLoad {
				t.Fatalf("error = %+v, want DATA_LOAD_ERROR", resp.Error)
			}
			if got := resp.Error.Details["kind"]; got != "missing_file" {
				t.Errorf("details.kind = %v, want missing_file", got)
			}
		})
	}
}

func TestDashboard_CacheHit(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	first := decode(t, env.do(t, http.MethodGet, "/api/v1/kpis?years=2012"))
	if first.Metadata.Cached {
		t.Error("first request reported cached")
	}
	second := decode(t, env.do(t, http.MethodGet, "/api/v1/kpis?years=2012"))
	if !second.Metadata.Cached {
		t.Error("second request not served from cache")
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Error("cached data differs from computed data")
	}

	// equivalent spelling shares the key
	third := decode(t, env.do(t, http.MethodGet, "/api/v1/kpis?years=2012&workingday=all"))
	if !third.Metadata.Cached {
		t.Error("normalized request missed the cache")
	}

	other := decode(t, env.do(t, http.MethodGet, "/api/v1/kpis?years=2011"))
	if other.Metadata.Cached {
		t.Error("different selection served from cache")
	}
}

func TestDashboard_NoCache(t *testing.T) {
	env := newTestEnv(t, envOptions{noCache: true})

	env.do(t, http.MethodGet, "/api/v1/kpis")
	if decode(t, env.do(t, http.MethodGet, "/api/v1/kpis")).Metadata.Cached {
		t.Error("response cached with caching disabled")
	}
}

func TestKPIs(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/v1/kpis?years=")
	var data KPIResponse
	decodeData(t, decode(t, rec), &data)
	if data.KPIs.Rows != 0 || data.KPIs.TotalCount != 0 {
		t.Errorf("kpis = %+v, want zero", data.KPIs)
	}
	if len(data.Cards) != 4 {
		t.Fatalf("cards = %d, want 4", len(data.Cards))
	}
	if data.Cards[1].Value != "NaN" {
		t.Errorf("mean card on empty selection = %q, want NaN", data.Cards[1].Value)
	}
}

func TestCharts(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for _, id := range []string{"monthly", "hourly", "scatter", "day-period", "correlation"} {
		t.Run(id, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/charts/"+id)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var spec struct {
				ID   string `json:"id"`
				Kind string `json:"kind"`
			}
			decodeData(t, decode(t, rec), &spec)
			if spec.ID != id {
				t.Errorf("id = %q, want %q", spec.ID, id)
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/charts/pie")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown chart status = %d, want 404", rec.Code)
	}
}

func TestChartPNG(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for _, id := range []string{"monthly", "hourly", "scatter", "day-period", "correlation"} {
		t.Run(id, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/charts/"+id+".png?years=2011")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != contentTypePNG {
				t.Errorf("Content-Type = %q", got)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
				t.Error("body is not a PNG")
			}
			if got := rec.Header().Get("X-Cache"); got != "MISS" {
				t.Errorf("X-Cache = %q, want MISS", got)
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/charts/monthly.png?years=2011")
	if got := rec.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("repeat X-Cache = %q, want HIT", got)
	}

	// an empty selection still renders
	rec = env.do(t, http.MethodGet, "/api/v1/charts/scatter.png?years=")
	if rec.Code != http.StatusOK {
		t.Errorf("empty scatter status = %d", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	var data PreviewResponse
	decodeData(t, decode(t, env.do(t, http.MethodGet, "/api/v1/preview?limit=5&years=2012")), &data)
	if len(data.Rows) != 5 || data.Total != 120 {
		t.Errorf("preview = %d rows of %d, want 5 of 120", len(data.Rows), data.Total)
	}
	for _, row := range data.Rows {
		if row.Year != 2012 {
			t.Errorf("preview row year = %d", row.Year)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/v1/preview.xlsx?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != contentTypeXLSX {
		t.Errorf("Content-Type = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("xlsx body is not a zip archive")
	}
}

func TestControls(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	var data struct {
		Years   []int    `json:"years"`
		Seasons []string `json:"seasons"`
		Charts  []string `json:"charts"`
	}
	decodeData(t, decode(t, env.do(t, http.MethodGet, "/api/v1/controls")), &data)
	if fmt.Sprint(data.Years) != "[2011 2012]" {
		t.Errorf("years = %v", data.Years)
	}
	if len(data.Seasons) != 4 || len(data.Charts) != 5 {
		t.Errorf("seasons = %v, charts = %v", data.Seasons, data.Charts)
	}
}

func TestDatasetSummary(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		rec := env.do(t, http.MethodGet, "/api/v1/dataset/summary")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if code := decode(t, rec).Error.Code; code != ErrCodeWarehouseUnavailable {
			t.Errorf("code = %s", code)
		}
	})

	t.Run("resolves selectors", func(t *testing.T) {
		wh := &fakeWarehouse{summary: []database.SeasonSummary{{Year: 2011, Season: 1, SeasonName: "spring", Rows: 3}}}
		env := newTestEnv(t, envOptions{warehouse: wh})

		rec := env.do(t, http.MethodGet, "/api/v1/dataset/summary?seasons=spring")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var rows []database.SeasonSummary
		decodeData(t, decode(t, rec), &rows)
		if len(rows) != 1 || rows[0].SeasonName != "spring" {
			t.Errorf("rows = %+v", rows)
		}
		if fmt.Sprint(wh.lastSel.Years) != "[2011 2012]" {
			t.Errorf("warehouse years = %v, want resolved [2011 2012]", wh.lastSel.Years)
		}
		if wh.lastSel.WorkingDay != filter.WorkingDayAll {
			t.Errorf("warehouse workingday = %q", wh.lastSel.WorkingDay)
		}
		if wh.loadCount() != 1 {
			t.Errorf("warehouse loads = %d, want 1", wh.loadCount())
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		wh := &fakeWarehouse{summaryErr: fmt.Errorf("query: %w", database.ErrWarehouseUnavailable)}
		env := newTestEnv(t, envOptions{warehouse: wh})
		rec := env.do(t, http.MethodGet, "/api/v1/dataset/summary")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if code := decode(t, rec).Error.Code; code != ErrCodeWarehouseUnavailable {
			t.Errorf("code = %s", code)
		}
	})
}

func TestDatasetInfo(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	var info DatasetInfo
	decodeData(t, decode(t, env.do(t, http.MethodGet, "/api/v1/dataset")), &info)
	if info.Rows != 240 || info.Source.Path == "" || len(info.Source.Fingerprint) == 0 {
		t.Errorf("info = %+v", info)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		method, target string
	}{
		{http.MethodPost, "/api/v1/dashboard"},
		{http.MethodGet, "/api/v1/dataset/reload"},
		{http.MethodDelete, "/api/v1/health/"},
	}
	for _, tt := range tests {
		rec := env.do(t, tt.method, tt.target)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tt.method, tt.target, rec.Code)
		}
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
}

func TestSync_AnnouncesNewVersion(t *testing.T) {
	wh := &fakeWarehouse{}
	env := newTestEnv(t, envOptions{warehouse: wh})
	ctx := context.Background()

	if err := env.handler.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	env.do(t, http.MethodGet, "/api/v1/kpis")
	if env.handler.cache.Len() == 0 {
		t.Fatal("response not cached")
	}

	// unchanged file: cache survives, warehouse not reloaded
	if err := env.handler.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if env.handler.cache.Len() == 0 {
		t.Error("cache cleared without a dataset change")
	}
	if wh.loadCount() != 1 {
		t.Errorf("warehouse loads = %d, want 1", wh.loadCount())
	}

	writeCSV(t, env.path, datasetCSV(120))
	if err := env.handler.Sync(ctx); err != nil {
		t.Fatalf("Sync() after change error = %v", err)
	}
	if env.handler.cache.Len() != 0 {
		t.Error("cache not cleared after dataset change")
	}
	if wh.loadCount() != 2 {
		t.Errorf("warehouse loads = %d, want 2", wh.loadCount())
	}

	var data KPIResponse
	decodeData(t, decode(t, env.do(t, http.MethodGet, "/api/v1/kpis")), &data)
	if data.KPIs.Rows != 120 {
		t.Errorf("rows after change = %d, want 120", data.KPIs.Rows)
	}
}

func TestSync_LoadError(t *testing.T) {
	env := newTestEnv(t, envOptions{missingFile: true})
	if err := env.handler.Sync(context.Background()); err == nil {
		t.Error("Sync() with missing file succeeded")
	}
}

type countingSink struct {
	mu       sync.Mutex
	reloaded []ws.DatasetReloadedData
	errs     []ws.DatasetErrorData
}

func (s *countingSink) BroadcastDatasetReloaded(d ws.DatasetReloadedData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloaded = append(s.reloaded, d)
	return true
}

func (s *countingSink) BroadcastDatasetError(d ws.DatasetErrorData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, d)
	return true
}

func (s *countingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reloaded), len(s.errs)
}

func TestSync_NotifiesThroughEventBus(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	sink := &countingSink{}
	bus := events.NewBus(sink, events.BusConfig{})
	defer bus.Close()
	env.handler.SetNotifier(bus)

	ctx := context.Background()
	if err := env.handler.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	before, _ := sink.counts()

	writeCSV(t, env.path, datasetCSV(72))
	if err := env.handler.Sync(ctx); err != nil {
		t.Fatalf("Sync() after change error = %v", err)
	}
	after, _ := sink.counts()
	if after != before+1 {
		t.Fatalf("reloaded events = %d, want %d", after, before+1)
	}
	sink.mu.Lock()
	last := sink.reloaded[len(sink.reloaded)-1]
	sink.mu.Unlock()
	if last.Rows != 72 {
		t.Errorf("announced rows = %d, want 72", last.Rows)
	}
}

func TestSync_ErrorAnnouncedOnce(t *testing.T) {
	env := newTestEnv(t, envOptions{missingFile: true})
	sink := &countingSink{}
	env.handler.SetNotifier(sink)

	for i := 0; i < 3; i++ {
		_ = env.handler.Sync(context.Background())
	}
	_, errs := sink.counts()
	if errs != 1 {
		t.Fatalf("dataset_error events = %d, want 1", errs)
	}
	if sink.errs[0].Kind != "missing_file" {
		t.Errorf("error kind = %q, want missing_file", sink.errs[0].Kind)
	}
}
