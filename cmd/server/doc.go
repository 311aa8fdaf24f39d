// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package main is the entry point for the Rentalscope server.
//
// Rentalscope loads the Washington D.C. bike rental dataset (a CSV of hourly
// rentals with weather and calendar columns) and serves an interactive
// dashboard over HTTP: KPIs, a monthly trend, hourly and day-period
// patterns, a sampled scatter with LOWESS trends, a correlation heatmap and
// a preview of the filtered rows, each as JSON and as PNG or XLSX exports.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml and environment variables (Koanf v2)
//  2. Logging: zerolog, bridged to slog for the supervisor
//  3. Dataset loader and dashboard pipeline
//  4. Warehouse (optional): DuckDB mirror of the dataset for SQL summaries
//  5. Response cache (TTL or LFU)
//  6. WebSocket hub for dataset change notifications
//  7. HTTP API on a chi router
//  8. Supervisor tree: warehouse sync, websocket hub, HTTP server
//
// # Configuration
//
// Common environment variables:
//
//	DATASET_PATH                path to train.csv (default ./data/train.csv)
//	DATASET_REVALIDATE          reload when the file changes on disk
//	WAREHOUSE_ENABLED           mirror the dataset into DuckDB
//	WAREHOUSE_SYNC_INTERVAL     how often the file is checked (0 disables)
//	HTTP_PORT, HTTP_HOST        listen address
//	LOG_LEVEL, LOG_FORMAT       zerolog settings
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
// server gracefully, closes websocket clients and waits for services to
// exit before the warehouse is closed.
package main
