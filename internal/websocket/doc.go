// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package websocket pushes dataset lifecycle notifications to dashboard
// clients over gorilla/websocket.
//
// The Hub owns the client set and runs as a supervised service. Clients
// receive JSON messages of the form
//
//	{"type": "dataset_reloaded", "data": {"path": "train.csv", "rows": 10886, ...}}
//
// and may send {"type": "ping"} to receive {"type": "pong"}. A browser that
// gets dataset_reloaded refetches its current dashboard view.
package websocket
