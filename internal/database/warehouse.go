// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/filter"
	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/metrics"
	"github.com/tomtom215/rentalscope/internal/models"
)

const rentalColumns = 16

const defaultBatchSize = 500

// SeasonSummary aggregates one (year, season) group of the warehouse.
type SeasonSummary struct {
	Year            int     `json:"year"`
	Season          int     `json:"season"`
	SeasonName      string  `json:"season_name"`
	Rows            int64   `json:"rows"`
	TotalCount      int64   `json:"total_count"`
	TotalCasual     int64   `json:"total_casual"`
	TotalRegistered int64   `json:"total_registered"`
	MeanCount       float64 `json:"mean_count"`
}

// LoadTable replaces the warehouse contents with t. It is a no-op when the
// stored fingerprint already matches t's source.
func (db *DB) LoadTable(ctx context.Context, t *dataset.Table) error {
	db.loadMu.Lock()
	defer db.loadMu.Unlock()

	src := t.Source()
	if src.Fingerprint != "" && src.Fingerprint == db.Fingerprint() {
		logging.Ctx(ctx).Debug().Str("fingerprint", src.Fingerprint[:min(12, len(src.Fingerprint))]).Msg("warehouse already holds this dataset")
		return nil
	}

	_, err := guard(db, "load", func() (struct{}, error) {
		start := time.Now()
		err := db.replaceRentals(ctx, t)
		metrics.RecordDBQuery("load", tableRentals, time.Since(start), err)
		return struct{}{}, err
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	db.mu.Lock()
	db.fingerprint = src.Fingerprint
	db.loadedAt = now
	db.mu.Unlock()
	metrics.WarehouseRows.Set(float64(t.Len()))

	logging.Ctx(ctx).Info().
		Int("rows", t.Len()).
		Str("path", src.Path).
		Msg("warehouse loaded")
	return nil
}

func (db *DB) replaceRentals(ctx context.Context, t *dataset.Table) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Warn().Err(rbErr).Msg("warehouse rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM rentals`); err != nil {
		return fmt.Errorf("clear rentals: %w", err)
	}

	batch := db.cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	rows := t.Rows()
	for lo := 0; lo < len(rows); lo += batch {
		hi := min(lo+batch, len(rows))
		if err = insertBatch(ctx, tx, rows[lo:hi]); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", lo+1, hi, err)
		}
	}

	src := t.Source()
	if _, err = tx.ExecContext(ctx, `DELETE FROM dataset_meta`); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO dataset_meta (id, path, fingerprint, row_count, loaded_at) VALUES (1, ?, ?, ?, ?)`,
		src.Path, src.Fingerprint, int64(len(rows)), time.Now().UTC()); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, rows []models.RentalRecord) error {
	if len(rows) == 0 {
		return nil
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", rentalColumns), ", ") + ")"

	var sb strings.Builder
	sb.WriteString(`INSERT INTO rentals (datetime, year, month, hour, dayofweek, season, season_name, workingday, day_period, temp, atemp, humidity, windspeed, casual, registered, "count") VALUES `)
	args := make([]interface{}, 0, len(rows)*rentalColumns)
	for i := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
		r := &rows[i]
		args = append(args,
			r.Datetime, r.Year, r.Month, r.Hour, r.DayOfWeek,
			r.Season, r.SeasonName, r.WorkingDay, r.DayPeriod,
			r.Temp, r.ATemp, r.Humidity, r.Windspeed,
			r.Casual, r.Registered, r.Count,
		)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// Summary returns totals per (year, season) for the rows matching sel,
// ordered by year then season code. sel must already be resolved: empty
// Years or Seasons select nothing.
func (db *DB) Summary(ctx context.Context, sel filter.Selectors) ([]SeasonSummary, error) {
	if len(sel.Years) == 0 || len(sel.Seasons) == 0 {
		return []SeasonSummary{}, nil
	}

	query, args := buildSummaryQuery(sel)
	return guard(db, "summary", func() ([]SeasonSummary, error) {
		start := time.Now()
		out, err := db.querySummary(ctx, query, args)
		metrics.RecordDBQuery("summary", tableRentals, time.Since(start), err)
		return out, err
	})
}

func buildSummaryQuery(sel filter.Selectors) (string, []interface{}) {
	var where []string
	var args []interface{}

	where = append(where, "year IN ("+placeholders(len(sel.Years))+")")
	for _, y := range sel.Years {
		args = append(args, y)
	}
	where = append(where, "season_name IN ("+placeholders(len(sel.Seasons))+")")
	for _, s := range sel.Seasons {
		args = append(args, s)
	}
	if flag, ok := sel.WorkingDay.Flag(); ok {
		where = append(where, "workingday = ?")
		args = append(args, flag)
	}

	query := `SELECT year, season, season_name,
		COUNT(*) AS row_count,
		CAST(SUM("count") AS BIGINT) AS total_count,
		CAST(SUM(casual) AS BIGINT) AS total_casual,
		CAST(SUM(registered) AS BIGINT) AS total_registered,
		AVG("count") AS mean_count
	FROM rentals
	WHERE ` + strings.Join(where, " AND ") + `
	GROUP BY year, season, season_name
	ORDER BY year, season`
	return query, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (db *DB) querySummary(ctx context.Context, query string, args []interface{}) ([]SeasonSummary, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "summary rows")

	out := []SeasonSummary{}
	for rows.Next() {
		var s SeasonSummary
		if err := rows.Scan(&s.Year, &s.Season, &s.SeasonName, &s.Rows,
			&s.TotalCount, &s.TotalCasual, &s.TotalRegistered, &s.MeanCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RowCount returns the number of rows stored in the warehouse.
func (db *DB) RowCount(ctx context.Context) (int64, error) {
	return guard(db, "count", func() (int64, error) {
		start := time.Now()
		var n int64
		err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM rentals`).Scan(&n)
		metrics.RecordDBQuery("count", tableRentals, time.Since(start), err)
		return n, err
	})
}

// LoadedAt returns when the current dataset was written to the warehouse.
func (db *DB) LoadedAt() time.Time {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.loadedAt
}
