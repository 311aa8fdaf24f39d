// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package dashboard turns user selections into everything the dashboard
// shows: formatted KPIs, chart specifications, the correlation matrix and
// the preview of filtered rows.
//
// A run is a pure function of the loaded table and the request: load
// (normally a cache hit), filter, aggregate, format. A load failure aborts
// the run with no partial output.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/rentalscope/internal/analytics"
	"github.com/tomtom215/rentalscope/internal/dataset"
	"github.com/tomtom215/rentalscope/internal/filter"
	"github.com/tomtom215/rentalscope/internal/logging"
	"github.com/tomtom215/rentalscope/internal/metrics"
	"github.com/tomtom215/rentalscope/internal/models"
)

// ErrUnknownChart is returned by Pipeline.Chart for an id outside ChartIDs.
var ErrUnknownChart = errors.New("unknown chart")

// DefaultPreviewLimit is the number of filtered rows shown in the preview.
const DefaultPreviewLimit = 200

// Request is one set of user selections. Nil Years or Seasons select every
// value present in the data; an empty non-nil slice selects nothing. Zero
// values of the other fields select their defaults.
type Request struct {
	Selectors    filter.Selectors
	Metric       analytics.Metric
	XVariable    analytics.XVariable
	Seed         int64
	PreviewLimit int
}

// KPIView carries the raw KPI numbers with a JSON-safe mean.
type KPIView struct {
	TotalCount      int64            `json:"total_count"`
	MeanCount       models.JSONFloat `json:"mean_count"`
	TotalRegistered int64            `json:"total_registered"`
	TotalCasual     int64            `json:"total_casual"`
	Rows            int              `json:"rows"`
}

// KPICard is one formatted headline figure.
type KPICard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// CorrelationView is the matrix with JSON-safe and formatted values.
type CorrelationView struct {
	Columns   []string             `json:"columns"`
	Values    [][]models.JSONFloat `json:"values"`
	Formatted [][]string           `json:"formatted"`
}

// Output is everything rendered for one request.
type Output struct {
	Title       string                `json:"title"`
	Selectors   filter.Selectors      `json:"selectors"`
	Metric      analytics.Metric      `json:"metric"`
	XVariable   analytics.XVariable   `json:"x"`
	Seed        int64                 `json:"seed"`
	KPIs        KPIView               `json:"kpis"`
	KPICards    []KPICard             `json:"kpi_cards"`
	Charts      []ChartSpec           `json:"charts"`
	Correlation CorrelationView       `json:"correlation"`
	Preview     []models.RentalRecord `json:"preview"`
	RowCount    int                   `json:"row_count"`
	Source      dataset.Source        `json:"source"`
}

// Chart returns the chart with the given id, or nil.
func (o *Output) Chart(id string) *ChartSpec {
	for i := range o.Charts {
		if o.Charts[i].ID == id {
			return &o.Charts[i]
		}
	}
	return nil
}

// View is a filtered view of the loaded table.
type View struct {
	Table     *dataset.Table
	Selectors filter.Selectors
	Rows      []models.RentalRecord
}

// Options tune a Pipeline. Zero values select the defaults.
type Options struct {
	ScatterLimit int
	PreviewLimit int
}

// Pipeline runs the dashboard against one dataset path.
type Pipeline struct {
	loader *dataset.Loader
	path   string
	opts   Options
}

// NewPipeline creates a pipeline reading path through loader.
func NewPipeline(loader *dataset.Loader, path string, opts Options) *Pipeline {
	if opts.ScatterLimit <= 0 {
		opts.ScatterLimit = analytics.DefaultScatterLimit
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = DefaultPreviewLimit
	}
	return &Pipeline{loader: loader, path: path, opts: opts}
}

// Path returns the dataset path the pipeline reads.
func (p *Pipeline) Path() string {
	return p.path
}

// Loader returns the pipeline's loader.
func (p *Pipeline) Loader() *dataset.Loader {
	return p.loader
}

// Table loads (or returns the cached) annotated table.
func (p *Pipeline) Table(ctx context.Context) (*dataset.Table, error) {
	return p.loader.Load(ctx, p.path)
}

// Reload drops the cached table and loads the file again.
func (p *Pipeline) Reload(ctx context.Context) (*dataset.Table, error) {
	p.loader.Invalidate(p.path)
	return p.loader.Load(ctx, p.path)
}

// ResolveSelectors fills nil year or season lists from the table.
func ResolveSelectors(t *dataset.Table, sel filter.Selectors) filter.Selectors {
	if sel.Years == nil {
		sel.Years = t.Years()
	}
	if sel.Seasons == nil {
		sel.Seasons = t.Seasons()
	}
	if sel.WorkingDay == "" {
		sel.WorkingDay = filter.WorkingDayAll
	}
	return sel
}

// View loads the table and applies the selectors.
func (p *Pipeline) View(ctx context.Context, sel filter.Selectors) (*View, error) {
	table, err := p.Table(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sel = ResolveSelectors(table, sel)
	rows := filter.Apply(table.Rows(), sel)
	metrics.RecordPipelineStage("filter", time.Since(start))
	metrics.RecordFilteredRows(len(rows))
	return &View{Table: table, Selectors: sel, Rows: rows}, nil
}

// Run executes the whole pipeline for req.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Output, error) {
	start := time.Now()

	metric := req.Metric
	if metric == "" {
		metric = analytics.MetricCount
	}
	x := req.XVariable
	if x == "" {
		x = analytics.XTemp
	}
	previewLimit := req.PreviewLimit
	if previewLimit <= 0 {
		previewLimit = p.opts.PreviewLimit
	}

	view, err := p.View(ctx, req.Selectors)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	rows := view.Rows

	kpi := stage("kpis", func() analytics.KPISummary { return analytics.Summarize(rows) })
	monthly := stage("monthly", func() []analytics.MonthlyPoint { return analytics.MonthlyTrend(rows, metric) })
	hourly := stage("hourly", func() []analytics.HourlyPoint { return analytics.HourlyPattern(rows) })
	scatter := stage("scatter", func() analytics.ScatterResult {
		return analytics.ScatterSample(rows, x, req.Seed, p.opts.ScatterLimit)
	})
	periods := stage("day_period", func() []analytics.DayPeriodPoint { return analytics.DayPeriodSummary(rows) })
	corr := stage("correlation", func() analytics.CorrelationMatrix { return analytics.Correlation(rows) })

	out := &Output{
		Title:     Title,
		Selectors: view.Selectors,
		Metric:    metric,
		XVariable: x,
		Seed:      req.Seed,
		KPIs:      NewKPIView(kpi),
		KPICards:  FormatKPIs(kpi),
		Charts: []ChartSpec{
			MonthlyChart(monthly, metric),
			HourlyChart(hourly),
			ScatterChart(scatter),
			DayPeriodChart(periods),
			CorrelationChart(corr),
		},
		Correlation: NewCorrelationView(corr),
		Preview:     Preview(rows, previewLimit),
		RowCount:    len(rows),
		Source:      view.Table.Source(),
	}

	metrics.RecordPipelineStage("total", time.Since(start))
	logging.Ctx(ctx).Debug().
		Int("rows", len(rows)).
		Ints("years", view.Selectors.Years).
		Strs("seasons", view.Selectors.Seasons).
		Str("workingday", string(view.Selectors.WorkingDay)).
		Dur("duration", time.Since(start)).
		Msg("dashboard pipeline run")

	return out, nil
}

// Chart computes the single chart id for req. It is the cheap path behind
// the per-chart endpoints and the PNG export.
func (p *Pipeline) Chart(ctx context.Context, id string, req Request) (*ChartSpec, *View, error) {
	var build func(rows []models.RentalRecord) ChartSpec
	switch id {
	case ChartMonthly:
		metric := req.Metric
		if metric == "" {
			metric = analytics.MetricCount
		}
		build = func(rows []models.RentalRecord) ChartSpec {
			return MonthlyChart(analytics.MonthlyTrend(rows, metric), metric)
		}
	case ChartHourly:
		build = func(rows []models.RentalRecord) ChartSpec { return HourlyChart(analytics.HourlyPattern(rows)) }
	case ChartScatter:
		x := req.XVariable
		if x == "" {
			x = analytics.XTemp
		}
		build = func(rows []models.RentalRecord) ChartSpec {
			return ScatterChart(analytics.ScatterSample(rows, x, req.Seed, p.opts.ScatterLimit))
		}
	case ChartDayPeriod:
		build = func(rows []models.RentalRecord) ChartSpec { return DayPeriodChart(analytics.DayPeriodSummary(rows)) }
	case ChartCorrelation:
		build = func(rows []models.RentalRecord) ChartSpec { return CorrelationChart(analytics.Correlation(rows)) }
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}

	view, err := p.View(ctx, req.Selectors)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	spec := stage(id, func() ChartSpec { return build(view.Rows) })
	return &spec, view, nil
}

// PreviewLimit returns the configured preview row count.
func (p *Pipeline) PreviewLimit() int {
	return p.opts.PreviewLimit
}

func stage[T any](name string, fn func() T) T {
	start := time.Now()
	v := fn()
	metrics.RecordPipelineStage(name, time.Since(start))
	return v
}

// NewKPIView converts a summary for JSON output.
func NewKPIView(s analytics.KPISummary) KPIView {
	return KPIView{
		TotalCount:      s.TotalCount,
		MeanCount:       models.JSONFloat(s.MeanCount),
		TotalRegistered: s.TotalRegistered,
		TotalCasual:     s.TotalCasual,
		Rows:            s.Rows,
	}
}

// FormatKPIs renders the four headline cards.
func FormatKPIs(s analytics.KPISummary) []KPICard {
	return []KPICard{
		{Label: "Total rentals", Value: FormatThousands(s.TotalCount)},
		{Label: "Mean hourly rentals", Value: FormatMean(s.MeanCount)},
		{Label: "Registered rentals", Value: FormatThousands(s.TotalRegistered)},
		{Label: "Casual rentals", Value: FormatThousands(s.TotalCasual)},
	}
}

// NewCorrelationView converts a matrix for JSON output.
func NewCorrelationView(m analytics.CorrelationMatrix) CorrelationView {
	v := CorrelationView{
		Columns:   append([]string(nil), m.Columns...),
		Values:    make([][]models.JSONFloat, len(m.Values)),
		Formatted: make([][]string, len(m.Values)),
	}
	for i, row := range m.Values {
		v.Values[i] = make([]models.JSONFloat, len(row))
		v.Formatted[i] = make([]string, len(row))
		for j, c := range row {
			v.Values[i][j] = models.JSONFloat(c)
			v.Formatted[i][j] = FormatCorrelation(c)
		}
	}
	return v
}

// Preview returns up to limit leading rows as a new slice.
func Preview(rows []models.RentalRecord, limit int) []models.RentalRecord {
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	return append(make([]models.RentalRecord, 0, limit), rows[:limit]...)
}
