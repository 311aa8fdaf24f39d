// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package database mirrors the loaded rental table into DuckDB and answers
// aggregate queries over it. The dashboard pipeline never reads from here;
// the warehouse only backs the per year and season summary endpoint.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/rentalscope/internal/config"
	"github.com/tomtom215/rentalscope/internal/logging"
)

// DB wraps the DuckDB connection.
type DB struct {
	conn    *sql.DB
	cfg     *config.WarehouseConfig
	breaker *circuitBreaker
	loadMu  sync.Mutex

	// fingerprint of the dataset currently stored; empty until the first load
	mu          sync.RWMutex
	fingerprint string
	loadedAt    time.Time
}

// New opens the warehouse and creates its schema.
func New(cfg *config.WarehouseConfig) (*DB, error) {
	path := cfg.Path
	if cfg.InMemory() {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		// 0750 per gosec G301
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create warehouse directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("duckdb", buildDSN(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse: %w", err)
	}

	db := &DB{
		conn:    conn,
		cfg:     cfg,
		breaker: newCircuitBreaker("duckdb-warehouse"),
	}

	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.createSchema(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize warehouse: %w", err)
	}

	if err := db.restoreMeta(ctx); err != nil {
		logging.Warn().Err(err).Msg("Could not read warehouse metadata, next load will rebuild it")
	}

	logging.Info().
		Str("path", path).
		Str("max_memory", cfg.MaxMemory).
		Msg("DuckDB warehouse opened")

	return db, nil
}

func buildDSN(path string, cfg *config.WarehouseConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	dsn := fmt.Sprintf("%s?access_mode=read_write&threads=%d", path, threads)
	if cfg.MaxMemory != "" {
		dsn += "&max_memory=" + cfg.MaxMemory
	}
	return dsn
}

func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Ping verifies the connection through the circuit breaker.
func (db *DB) Ping(ctx context.Context) error {
	_, err := guard(db, "ping", func() (struct{}, error) {
		return struct{}{}, db.conn.PingContext(ctx)
	})
	return err
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Fingerprint returns the fingerprint of the dataset last loaded into the
// warehouse, or "" when nothing has been loaded.
func (db *DB) Fingerprint() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.fingerprint
}

// Breaker reports the circuit breaker state for health output.
func (db *DB) Breaker() string {
	return stateToString(db.breaker.cb.State())
}
