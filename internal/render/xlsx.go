// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package render

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/rentalscope/internal/metrics"
	"github.com/tomtom215/rentalscope/internal/models"
)

// PreviewSheet is the worksheet name of the preview export.
const PreviewSheet = "Filtered data"

// PreviewColumns is the header row of the preview export.
var PreviewColumns = []string{
	"datetime", "season", "workingday", "temp", "atemp", "humidity", "windspeed",
	"casual", "registered", "count",
	"year", "month", "dayofweek", "hour", "season_name", "day_name", "day_period",
}

// PreviewXLSX writes rows as a single-sheet workbook with a bold header row.
func PreviewXLSX(rows []models.RentalRecord) ([]byte, error) {
	start := time.Now()
	data, err := previewXLSX(rows)
	metrics.RecordChartRender("preview.xlsx", time.Since(start), err)
	return data, err
}

func previewXLSX(rows []models.RentalRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PreviewSheet); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	header := make([]interface{}, len(PreviewColumns))
	for i, name := range PreviewColumns {
		header[i] = name
	}
	if err := f.SetSheetRow(PreviewSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: header style: %w", err)
	}
	lastCol, err := excelize.CoordinatesToCellName(len(PreviewColumns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(PreviewSheet, "A1", lastCol, bold); err != nil {
		return nil, fmt.Errorf("xlsx: apply header style: %w", err)
	}

	for i := range rows {
		r := &rows[i]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.Datetime.Format("2006-01-02 15:04:05"),
			r.Season, r.WorkingDay, r.Temp, r.ATemp, r.Humidity, r.Windspeed,
			r.Casual, r.Registered, r.Count,
			r.Year, r.Month, r.DayOfWeek, r.Hour, r.SeasonName, r.DayName, r.DayPeriod,
		}
		if err := f.SetSheetRow(PreviewSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(PreviewSheet, "A", "A", 20); err != nil {
		return nil, fmt.Errorf("xlsx: column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
