// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rentalscope/internal/cache"
	"github.com/tomtom215/rentalscope/internal/config"
	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/database"
	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/filter"
	"github.com/tomtom215/rentalscope/internal/middleware"
	ws "github.com/tomtom215/rentalscope/internal/websocket"
)

const csvHeader = "datetime,season,holiday,workingday,weather,temp,atemp,humidity,windspeed,casual,registered,count\n"

// datasetCSV builds rows hourly rows alternating between 2011 and 2012.
func datasetCSV(rows int) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	for i := 0; i < rows; i++ {
		year := 2011 + i%2
		month := i%12 + 1
		season := (month-1)/3 + 1
		working := 0
		if i%3 != 0 {
			working = 1
		}
		casual := i % 13
		registered := 2*i%89 + 1
		fmt.Fprintf(&b, "%d-%02d-%02d %02d:00:00,%d,0,%d,1,%.2f,%.3f,%d,%.4f,%d,%d,%d\n",
			year, month, i%27+1, i%24, season, working,
			4+float64(i%25), 6+float64(i%25)*1.2, 35+i%60, float64(i%15)*1.7,
			casual, registered, casual+registered)
	}
	return b.String()
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
}

// fakeWarehouse records loads and returns canned summaries.
type fakeWarehouse struct {
	mu          sync.Mutex
	fingerprint string
	loads       int
	rows        int64
	summary     []database.SeasonSummary
	summaryErr  error
	lastSel     filter.Selectors
}

func (f *fakeWarehouse) Ping(context.Context) error { return nil }

func (f *fakeWarehouse) LoadTable(_ context.Context, t *dataset.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fingerprint == t.Source().Fingerprint {
		return nil
	}
	f.fingerprint = t.Source().Fingerprint
	f.rows = int64(t.Len())
	f.loads++
	return nil
}

func (f *fakeWarehouse) Summary(_ context.Context, sel filter.Selectors) ([]database.SeasonSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSel = sel
	return f.summary, f.summaryErr
}

func (f *fakeWarehouse) Fingerprint() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fingerprint
}

func (f *fakeWarehouse) RowCount(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeWarehouse) Breaker() string     { return "closed" }
func (f *fakeWarehouse) LoadedAt() time.Time { return time.Time{} }

func (f *fakeWarehouse) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

type testEnv struct {
	handler   *Handler
	router    http.Handler
	path      string
	warehouse *fakeWarehouse
	hub       *ws.Hub
}

type envOptions struct {
	missingFile bool
	noCache     bool
	warehouse   *fakeWarehouse
	hub         bool
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "train.csv")
	if !opts.missingFile {
		writeCSV(t, path, datasetCSV(240))
	}

	cfg := &config.Config{
		Security: config.SecurityConfig{CORSOrigins: []string{"*"}, RateLimitDisabled: true},
	}

	var c cache.Cacher
	if !opts.noCache {
		c = cache.NewCacher(config.CacheConfig{Enabled: true, Type: "ttl", TTL: time.Minute})
		t.Cleanup(c.Close)
	}

	var hub *ws.Hub
	if opts.hub {
		hub = ws.NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = hub.RunWithContext(ctx) }()
		t.Cleanup(cancel)
	}

	var wh Warehouse
	if opts.warehouse != nil {
		wh = opts.warehouse
	}

	loader := dataset.NewLoader(dataset.WithRevalidation(true))
	pipeline := dashboard.NewPipeline(loader, path, dashboard.Options{})
	h := NewHandler(pipeline, wh, c, hub, cfg, middleware.NewPerformanceMonitor(100, time.Second))
	router := NewRouter(h, NewChiMiddleware(ChiMiddlewareConfigFrom(cfg.Security))).SetupChi()

	return &testEnv{handler: h, router: router, path: path, warehouse: opts.warehouse, hub: hub}
}

// envelope mirrors models.APIResponse with the data left raw.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		Cached bool `json:"cached"`
		Rows   *int `json:"rows"`
	} `json:"metadata"`
	Error *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}
