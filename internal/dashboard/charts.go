// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package dashboard

import (
	"fmt"
	"strconv"

	"github.com/tomtom215/rentalscope/internal/analytics"
	"github.com/tomtom215/rentalscope/internal/models"
)

// ChartKind is the visual form of a chart.
type ChartKind string

const (
	KindLine       ChartKind = "line"
	KindScatter    ChartKind = "scatter"
	KindGroupedBar ChartKind = "grouped_bar"
	KindHeatmap    ChartKind = "heatmap"
)

// Chart identifiers, also used in URLs (/charts/{id}.png).
const (
	ChartMonthly     = "monthly"
	ChartHourly      = "hourly"
	ChartScatter     = "scatter"
	ChartDayPeriod   = "day-period"
	ChartCorrelation = "correlation"
)

// ChartIDs lists the charts in page order.
var ChartIDs = []string{ChartMonthly, ChartHourly, ChartScatter, ChartDayPeriod, ChartCorrelation}

// ScatterOpacity is the marker opacity of the scatter chart.
const ScatterOpacity = 0.6

// Point is one (x, y) mark. For grouped bars X is the category index.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is one colored group of marks.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Trend  []Point `json:"trend,omitempty"`
}

// ChartSpec describes a chart independently of how it is drawn.
type ChartSpec struct {
	ID         string    `json:"id"`
	Kind       ChartKind `json:"kind"`
	Title      string    `json:"title"`
	XLabel     string    `json:"x_label"`
	YLabel     string    `json:"y_label"`
	Legend     string    `json:"legend,omitempty"`
	Opacity    float64   `json:"opacity,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Series     []Series  `json:"series"`

	// Heatmap only.
	Cells       [][]models.JSONFloat `json:"cells,omitempty"`
	Annotations [][]string           `json:"annotations,omitempty"`
	Palette     string               `json:"palette,omitempty"`
}

// Empty reports whether the chart has nothing to draw.
func (c *ChartSpec) Empty() bool {
	if c.Kind == KindHeatmap {
		for _, row := range c.Cells {
			for _, v := range row {
				if v.Defined() {
					return false
				}
			}
		}
		return true
	}
	for _, s := range c.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// seriesBuilder collects points into named series in first-seen order.
type seriesBuilder struct {
	index  map[string]int
	series []Series
}

func newSeriesBuilder() *seriesBuilder {
	return &seriesBuilder{index: make(map[string]int)}
}

func (b *seriesBuilder) add(name string, p Point) {
	i, ok := b.index[name]
	if !ok {
		i = len(b.series)
		b.index[name] = i
		b.series = append(b.series, Series{Name: name, Points: []Point{}})
	}
	b.series[i].Points = append(b.series[i].Points, p)
}

func (b *seriesBuilder) result() []Series {
	if b.series == nil {
		return []Series{}
	}
	return b.series
}

// MonthlyChart draws one line per year over months.
func MonthlyChart(points []analytics.MonthlyPoint, metric analytics.Metric) ChartSpec {
	b := newSeriesBuilder()
	for _, p := range points {
		b.add(strconv.Itoa(p.Year), Point{X: float64(p.Month), Y: p.Value})
	}
	return ChartSpec{
		ID:     ChartMonthly,
		Kind:   KindLine,
		Title:  fmt.Sprintf("Mean hourly %s by month and year", metric),
		XLabel: "Month",
		YLabel: fmt.Sprintf("Mean hourly %s", metric),
		Legend: "year",
		Series: b.result(),
	}
}

// HourlyChart draws one line per working-day label over hours.
func HourlyChart(points []analytics.HourlyPoint) ChartSpec {
	b := newSeriesBuilder()
	for _, p := range points {
		b.add(p.Label, Point{X: float64(p.Hour), Y: p.Mean})
	}
	return ChartSpec{
		ID:     ChartHourly,
		Kind:   KindLine,
		Title:  "Mean hourly rentals by working vs non-working days",
		XLabel: "Hour of day",
		YLabel: "Mean hourly rentals",
		Legend: "workingday_label",
		Series: b.result(),
	}
}

// ScatterChart draws the sampled points per season with their trend lines.
func ScatterChart(res analytics.ScatterResult) ChartSpec {
	b := newSeriesBuilder()
	for _, p := range res.Points {
		b.add(p.Season, Point{X: p.X, Y: float64(p.Count)})
	}
	series := b.result()
	for _, tr := range res.Trends {
		i, ok := b.index[tr.Season]
		if !ok {
			continue
		}
		trend := make([]Point, len(tr.Points))
		for j, tp := range tr.Points {
			trend[j] = Point{X: tp.X, Y: tp.Y}
		}
		series[i].Trend = trend
	}
	return ChartSpec{
		ID:      ChartScatter,
		Kind:    KindScatter,
		Title:   fmt.Sprintf("Hourly rentals vs %s (colored by season)", res.X),
		XLabel:  string(res.X),
		YLabel:  "Hourly rentals",
		Legend:  "Season",
		Opacity: ScatterOpacity,
		Series:  series,
	}
}

// DayPeriodChart draws grouped bars: one group per day period present, one
// bar per working-day label.
func DayPeriodChart(points []analytics.DayPeriodPoint) ChartSpec {
	categories := []string{}
	catIndex := make(map[string]int)
	for _, p := range points {
		if _, ok := catIndex[p.Period]; !ok {
			catIndex[p.Period] = len(categories)
			categories = append(categories, p.Period)
		}
	}

	b := newSeriesBuilder()
	for _, p := range points {
		b.add(p.Label, Point{X: float64(catIndex[p.Period]), Y: p.Mean})
	}
	return ChartSpec{
		ID:         ChartDayPeriod,
		Kind:       KindGroupedBar,
		Title:      "Mean hourly rentals by period of day and working day",
		XLabel:     "Period of day",
		YLabel:     "Mean hourly rentals",
		Legend:     "workingday_label",
		Categories: categories,
		Series:     b.result(),
	}
}

// CorrelationChart annotates the matrix with two-decimal labels.
func CorrelationChart(m analytics.CorrelationMatrix) ChartSpec {
	cells := make([][]models.JSONFloat, len(m.Values))
	notes := make([][]string, len(m.Values))
	for i, row := range m.Values {
		cells[i] = make([]models.JSONFloat, len(row))
		notes[i] = make([]string, len(row))
		for j, v := range row {
			cells[i][j] = models.JSONFloat(v)
			notes[i][j] = FormatCorrelation(v)
		}
	}
	return ChartSpec{
		ID:          ChartCorrelation,
		Kind:        KindHeatmap,
		Title:       "Correlation matrix of numeric variables",
		Categories:  append([]string(nil), m.Columns...),
		Series:      []Series{},
		Cells:       cells,
		Annotations: notes,
		Palette:     "coolwarm",
	}
}
