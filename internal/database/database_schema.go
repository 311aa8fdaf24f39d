// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// tableRentals labels warehouse query metrics.
const tableRentals = "rentals"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rentals (
		datetime    TIMESTAMP NOT NULL,
		year        INTEGER NOT NULL,
		month       INTEGER NOT NULL,
		hour        INTEGER NOT NULL,
		dayofweek   INTEGER NOT NULL,
		season      INTEGER NOT NULL,
		season_name VARCHAR NOT NULL,
		workingday  INTEGER NOT NULL,
		day_period  VARCHAR NOT NULL,
		temp        DOUBLE NOT NULL,
		atemp       DOUBLE NOT NULL,
		humidity    DOUBLE NOT NULL,
		windspeed   DOUBLE NOT NULL,
		casual      INTEGER NOT NULL,
		registered  INTEGER NOT NULL,
		"count"     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rentals_year_season ON rentals(year, season)`,
	`CREATE TABLE IF NOT EXISTS dataset_meta (
		id          INTEGER PRIMARY KEY,
		path        VARCHAR NOT NULL,
		fingerprint VARCHAR NOT NULL,
		row_count   BIGINT NOT NULL,
		loaded_at   TIMESTAMP NOT NULL
	)`,
}

func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// restoreMeta picks up the fingerprint of a file-backed warehouse that was
// populated by an earlier process.
func (db *DB) restoreMeta(ctx context.Context) error {
	var fingerprint string
	var loadedAt sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT fingerprint, loaded_at FROM dataset_meta WHERE id = 1`).Scan(&fingerprint, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	db.mu.Lock()
	db.fingerprint = fingerprint
	if loadedAt.Valid {
		db.loadedAt = loadedAt.Time
	}
	db.mu.Unlock()
	return nil
}
