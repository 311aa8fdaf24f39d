// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every setting
//  2. Config File: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: override any mapped setting
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Server    ServerConfig    `koanf:"server"`
	Cache     CacheConfig     `koanf:"cache"`
	Warehouse WarehouseConfig `koanf:"warehouse"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatasetConfig points at the rental CSV and tunes the dashboard pipeline.
//
// Environment Variables:
//   - DATASET_PATH: CSV file path (default: train.csv)
//   - DATASET_REVALIDATE: reload when the file changes on disk (default: true)
//   - SCATTER_SAMPLE_SIZE: maximum scatter points (default: 5000)
//   - SCATTER_SEED: default sampling seed (default: 0)
//   - PREVIEW_LIMIT: rows in the data preview (default: 200)
type DatasetConfig struct {
	Path              string `koanf:"path"`
	Revalidate        bool   `koanf:"revalidate"`
	ScatterSampleSize int    `koanf:"scatter_sample_size"`
	ScatterSeed       int64  `koanf:"scatter_seed"`
	PreviewLimit      int    `koanf:"preview_limit"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CacheConfig controls the API response cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Type    string        `koanf:"type"` // "ttl" or "lfu"
	TTL     time.Duration `koanf:"ttl"`
	// Capacity bounds the LFU cache. Ignored by the TTL cache.
	Capacity int `koanf:"capacity"`
}

// WarehouseConfig configures the DuckDB warehouse that backs the per year and
// season summary endpoint. An empty path or ":memory:" keeps it in memory.
type WarehouseConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU
	BatchSize int    `koanf:"batch_size"`

	// SyncInterval is how often the dataset is rechecked and the warehouse
	// refreshed. 0 disables polling; reloads still sync.
	SyncInterval time.Duration `koanf:"sync_interval"`
}

// InMemory reports whether the warehouse has no backing file.
func (w WarehouseConfig) InMemory() bool {
	return w.Path == "" || w.Path == ":memory:"
}

// SecurityConfig holds rate limiting and CORS settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration using the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
