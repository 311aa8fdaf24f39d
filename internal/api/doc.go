// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

/*
Package api serves the dashboard over HTTP.

Every JSON endpoint writes the models.APIResponse envelope. Dashboard
endpoints share one query vocabulary:

	years       comma-separated or repeated; absent selects every year,
	            present but empty selects none
	seasons     spring, summer, fall, winter; same absent/empty rule
	workingday  all, working, non-working
	metric      count, casual, registered (monthly chart)
	x           temp, atemp, humidity, windspeed, hour, dayofweek (scatter)
	seed        scatter sampling seed
	limit       preview row count

Responses are cached per dataset fingerprint and request parameters. The
cache is cleared whenever the dataset changes, whether through an explicit
POST /api/v1/dataset/reload or through the warehouse sync service noticing a
new file.

Errors map onto these codes:

	VALIDATION_ERROR       400  a query parameter is invalid
	DATA_LOAD_ERROR        503  the dataset could not be loaded
	WAREHOUSE_UNAVAILABLE  503  DuckDB is disabled, failing, or its breaker is open
	RENDER_ERROR           500  a chart or workbook could not be produced
*/
package api
