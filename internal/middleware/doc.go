// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package middleware provides the HTTP middleware shared by the API routes:
// request IDs wired into the logging context, Prometheus request metrics,
// gzip compression and an in-process latency monitor.
//
// The functions use the http.HandlerFunc form; the api package adapts them
// to chi's func(http.Handler) http.Handler.
//
//	r.Use(chiMiddleware(middleware.RequestID))
//	r.Use(chiMiddleware(middleware.PrometheusMetrics))
//	r.Use(chiMiddleware(middleware.Compression))
//	r.Use(monitor.Middleware)
package middleware
