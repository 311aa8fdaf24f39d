// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package dataset loads the bike rental CSV into an immutable annotated table.
//
// Loads are cached by source identity. The cache key is the absolute path;
// each entry remembers the SHA-256 fingerprint of the bytes it was parsed
// from. A cached table is returned as the identical *Table on every call
// until Invalidate or InvalidateAll drops it. With revalidation enabled the
// loader also stats the file on each call and reloads when its size or
// modification time changed.
package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/metrics"
	"github.com/tomtom215/rentalscope/internal/models"
)

// RequiredColumns must all be present in the CSV header. Extra columns are
// ignored.
var RequiredColumns = []string{
	"datetime", "season", "workingday",
	"temp", "atemp", "humidity", "windspeed",
	"casual", "registered", "count",
}

type cacheEntry struct {
	table   *Table
	size    int64
	modTime time.Time
}

// Loader reads and caches annotated tables. The zero value is not usable;
// call NewLoader.
type Loader struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	group      singleflight.Group
	revalidate bool
	now        func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithRevalidation makes Load stat the file on every call and reload it when
// the size or modification time changed since it was cached.
func WithRevalidation(enabled bool) Option {
	return func(l *Loader) {
		l.revalidate = enabled
	}
}

// WithClock overrides the clock used for Source.LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader creates an empty loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the annotated table for path, reading the file only on a
// cache miss. Concurrent misses for the same path share one read.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := filepath.Abs(path)
	if err != nil {
		return nil, loadError(path, KindUnreadable, err)
	}

	if table, ok := l.cached(key); ok {
		metrics.RecordDatasetCache(true)
		return table, nil
	}
	metrics.RecordDatasetCache(false)

	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		if table, ok := l.cached(key); ok {
			return table, nil
		}
		return l.loadFile(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Debug().Str("path", key).Msg("dataset load coalesced with in-flight read")
	}
	return v.(*Table), nil
}

func (l *Loader) cached(key string) (*Table, bool) {
	l.mu.RLock()
	entry, ok := l.entries[key]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !l.revalidate {
		return entry.table, true
	}

	info, err := os.Stat(key)
	if err != nil || info.Size() != entry.size || !info.ModTime().Equal(entry.modTime) {
		logging.Info().Str("path", key).Msg("dataset changed on disk, reloading")
		l.Invalidate(key)
		return nil, false
	}
	return entry.table, true
}

func (l *Loader) loadFile(ctx context.Context, key string) (*Table, error) {
	start := time.Now()

	info, err := os.Stat(key)
	if err != nil {
		lerr := statError(key, err)
		metrics.RecordDatasetLoad(time.Since(start), 0, lerr)
		return nil, lerr
	}
	if info.IsDir() {
		lerr := loadError(key, KindUnreadable, errors.New("path is a directory"))
		metrics.RecordDatasetLoad(time.Since(start), 0, lerr)
		return nil, lerr
	}

	data, err := os.ReadFile(key)
	if err != nil {
		lerr := statError(key, err)
		metrics.RecordDatasetLoad(time.Since(start), 0, lerr)
		return nil, lerr
	}

	sum := sha256.Sum256(data)
	src := Source{
		Path:        key,
		Fingerprint: hex.EncodeToString(sum[:]),
		LoadedAt:    l.now().UTC(),
		Size:        info.Size(),
		ModTime:     info.ModTime().UTC(),
	}

	table, err := Parse(data, src)
	metrics.RecordDatasetLoad(time.Since(start), rowsOf(table), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("path", key).Msg("dataset load failed")
		return nil, err
	}

	l.mu.Lock()
	l.entries[key] = &cacheEntry{table: table, size: info.Size(), modTime: info.ModTime()}
	l.mu.Unlock()

	logging.Ctx(ctx).Info().
		Str("path", key).
		Int("rows", table.Len()).
		Ints("years", table.Years()).
		Str("fingerprint", src.Fingerprint[:12]).
		Dur("duration", time.Since(start)).
		Msg("dataset loaded")

	return table, nil
}

func rowsOf(t *Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

func statError(path string, err error) *DataLoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return loadError(path, KindMissingFile, err)
	}
	return loadError(path, KindUnreadable, err)
}

// Invalidate drops the cached table for path. The next Load re-reads the file.
func (l *Loader) Invalidate(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// InvalidateAll drops every cached table.
func (l *Loader) InvalidateAll() {
	l.mu.Lock()
	l.entries = make(map[string]*cacheEntry)
	l.mu.Unlock()
}

// Cached reports whether a table for path is currently cached.
func (l *Loader) Cached(path string) bool {
	key, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[key]
	return ok
}

// Parse decodes CSV bytes into an annotated table. Every column is read as
// text and converted row by row so errors can name the row and column.
func Parse(data []byte, src Source) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, loadError(src.Path, KindEmpty, errors.New("file is empty"))
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		if strings.Contains(df.Err.Error(), "empty") {
			return nil, loadError(src.Path, KindEmpty, df.Err)
		}
		return nil, loadError(src.Path, KindMalformed, df.Err)
	}

	// Header names may carry stray whitespace; map trimmed name -> raw name.
	present := make(map[string]string, df.Ncol())
	for _, name := range df.Names() {
		present[strings.TrimSpace(name)] = name
	}
	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &DataLoadError{
			Path:   src.Path,
			Kind:   KindMissingColumns,
			Column: strings.Join(missing, ","),
			Err:    fmt.Errorf("required columns not found: %s", strings.Join(missing, ", ")),
		}
	}

	n := df.Nrow()
	if n == 0 {
		return nil, loadError(src.Path, KindEmpty, errors.New("no data rows"))
	}

	cols := make(map[string][]string, len(RequiredColumns))
	for _, name := range RequiredColumns {
		cols[name] = df.Col(present[name]).Records()
	}

	rows := make([]models.RentalRecord, n)
	for i := 0; i < n; i++ {
		if err := parseRow(&rows[i], cols, i); err != nil {
			err.Path = src.Path
			return nil, err
		}
	}

	return NewTable(src, rows), nil
}

// parseRow converts row i of the text columns into rec and checks the record
// invariants. The returned error has no Path set.
func parseRow(rec *models.RentalRecord, cols map[string][]string, i int) *DataLoadError {
	row := i + 1
	field := func(name string) string {
		return strings.TrimSpace(cols[name][i])
	}
	malformed := func(column string, err error) *DataLoadError {
		return rowError("", KindMalformed, row, column, err)
	}
	violation := func(column, format string, args ...interface{}) *DataLoadError {
		return rowError("", KindInvariant, row, column, fmt.Errorf(format, args...))
	}

	ts, err := parseTimestamp(field("datetime"))
	if err != nil {
		return malformed("datetime", err)
	}
	rec.Datetime = ts

	ints := []struct {
		column string
		dst    *int
	}{
		{"season", &rec.Season},
		{"workingday", &rec.WorkingDay},
		{"casual", &rec.Casual},
		{"registered", &rec.Registered},
		{"count", &rec.Count},
	}
	for _, c := range ints {
		v, err := parseInt(field(c.column))
		if err != nil {
			return malformed(c.column, err)
		}
		*c.dst = v
	}

	floats := []struct {
		column string
		dst    *float64
	}{
		{"temp", &rec.Temp},
		{"atemp", &rec.ATemp},
		{"humidity", &rec.Humidity},
		{"windspeed", &rec.Windspeed},
	}
	for _, c := range floats {
		v, err := strconv.ParseFloat(field(c.column), 64)
		if err != nil {
			return malformed(c.column, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return malformed(c.column, fmt.Errorf("non-finite value %q", field(c.column)))
		}
		*c.dst = v
	}

	if rec.WorkingDay != 0 && rec.WorkingDay != 1 {
		return violation("workingday", "workingday must be 0 or 1, got %d", rec.WorkingDay)
	}
	if rec.Casual < 0 || rec.Registered < 0 {
		return violation("casual", "rental counts must be non-negative")
	}
	if rec.Count != rec.Casual+rec.Registered {
		return violation("count", "count %d != casual %d + registered %d", rec.Count, rec.Casual, rec.Registered)
	}
	if !Annotate(rec) {
		return violation("season", "season must be 1-4, got %d", rec.Season)
	}
	return nil
}

// parseInt accepts integral values written as floats ("12.0"), which some
// exports of the dataset contain.
func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}
