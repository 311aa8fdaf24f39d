// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package analytics

import (
	"fmt"
	"strings"

	"github.com/tomtom215/rentalscope/internal/models"
)

// Metric selects the rental count aggregated by the monthly trend.
type Metric string

const (
	MetricCount      Metric = "count"
	MetricCasual     Metric = "casual"
	MetricRegistered Metric = "registered"
)

// Metrics lists the selectable metrics in control order.
var Metrics = []Metric{MetricCount, MetricCasual, MetricRegistered}

// ParseMetric validates a metric name. Empty selects count.
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MetricCount, nil
	}
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Value extracts the metric from a record.
func (m Metric) Value(r *models.RentalRecord) float64 {
	switch m {
	case MetricCasual:
		return float64(r.Casual)
	case MetricRegistered:
		return float64(r.Registered)
	default:
		return float64(r.Count)
	}
}

// XVariable is the horizontal axis of the scatter chart.
type XVariable string

const (
	XTemp      XVariable = "temp"
	XATemp     XVariable = "atemp"
	XHumidity  XVariable = "humidity"
	XWindspeed XVariable = "windspeed"
	XHour      XVariable = "hour"
	XDayOfWeek XVariable = "dayofweek"
)

// XVariables lists the selectable scatter axes in control order.
var XVariables = []XVariable{XTemp, XATemp, XHumidity, XWindspeed, XHour, XDayOfWeek}

// ParseXVariable validates an x-variable name. Empty selects temp.
func ParseXVariable(s string) (XVariable, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return XTemp, nil
	}
	for _, x := range XVariables {
		if string(x) == s {
			return x, nil
		}
	}
	return "", fmt.Errorf("unknown x variable %q", s)
}

// Value extracts the variable from a record.
func (x XVariable) Value(r *models.RentalRecord) float64 {
	switch x {
	case XATemp:
		return r.ATemp
	case XHumidity:
		return r.Humidity
	case XWindspeed:
		return r.Windspeed
	case XHour:
		return float64(r.Hour)
	case XDayOfWeek:
		return float64(r.DayOfWeek)
	default:
		return r.Temp
	}
}

// NumericColumns are the columns of the correlation matrix, in order.
var NumericColumns = []string{"temp", "atemp", "humidity", "windspeed", "casual", "registered", "count"}

func numericColumn(name string, r *models.RentalRecord) float64 {
	switch name {
	case "temp":
		return r.Temp
	case "atemp":
		return r.ATemp
	case "humidity":
		return r.Humidity
	case "windspeed":
		return r.Windspeed
	case "casual":
		return float64(r.Casual)
	case "registered":
		return float64(r.Registered)
	default:
		return float64(r.Count)
	}
}
