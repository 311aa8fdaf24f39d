// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

// Package render draws dashboard chart specs as PNG images with gonum/plot
// and exports the filtered preview as an XLSX workbook.
//
// Empty specs render as an empty titled chart rather than an error.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/tomtom215/rentalscope/internal/dashboard"
	"github.com/tomtom215/rentalscope/internal/metrics"
)

// Options controls image size.
type Options struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions is a 16:10 image suitable for the web page.
func DefaultOptions() Options {
	return Options{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

// Chart renders spec according to its kind.
func Chart(spec *dashboard.ChartSpec, opts Options) ([]byte, error) {
	switch spec.Kind {
	case dashboard.KindLine:
		return Line(spec, opts)
	case dashboard.KindScatter:
		return Scatter(spec, opts)
	case dashboard.KindGroupedBar:
		return GroupedBar(spec, opts)
	case dashboard.KindHeatmap:
		return Heatmap(spec, opts)
	default:
		return nil, fmt.Errorf("render: unsupported chart kind %q", spec.Kind)
	}
}

// Line draws one line with point markers per series.
func Line(spec *dashboard.ChartSpec, opts Options) ([]byte, error) {
	return timed(spec.ID, func() ([]byte, error) {
		p := newPlot(spec)
		for i, s := range spec.Series {
			if len(s.Points) == 0 {
				continue
			}
			line, points, err := plotter.NewLinePoints(toXYs(s.Points))
			if err != nil {
				return nil, fmt.Errorf("render %s series %q: %w", spec.ID, s.Name, err)
			}
			c := plotutil.Color(i)
			line.LineStyle.Color = c
			line.LineStyle.Width = vg.Points(1.5)
			points.GlyphStyle.Color = c
			points.GlyphStyle.Shape = draw.CircleGlyph{}
			points.GlyphStyle.Radius = vg.Points(2.5)
			p.Add(line, points)
			p.Legend.Add(s.Name, line, points)
		}
		return encode(p, opts)
	})
}

// Scatter draws translucent points per series and each series' trend line.
func Scatter(spec *dashboard.ChartSpec, opts Options) ([]byte, error) {
	return timed(spec.ID, func() ([]byte, error) {
		p := newPlot(spec)
		alpha := uint8(255 * spec.Opacity)
		if spec.Opacity <= 0 || spec.Opacity > 1 {
			alpha = 255
		}
		for i, s := range spec.Series {
			if len(s.Points) == 0 {
				continue
			}
			sc, err := plotter.NewScatter(toXYs(s.Points))
			if err != nil {
				return nil, fmt.Errorf("render %s series %q: %w", spec.ID, s.Name, err)
			}
			base := color.NRGBAModel.Convert(plotutil.Color(i)).(color.NRGBA)
			sc.GlyphStyle.Color = color.NRGBA{R: base.R, G: base.G, B: base.B, A: alpha}
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			sc.GlyphStyle.Radius = vg.Points(1.8)
			p.Add(sc)
			p.Legend.Add(s.Name, sc)

			if len(s.Trend) > 1 {
				trend, err := plotter.NewLine(toXYs(s.Trend))
				if err != nil {
					return nil, fmt.Errorf("render %s trend %q: %w", spec.ID, s.Name, err)
				}
				trend.LineStyle.Color = plotutil.Color(i)
				trend.LineStyle.Width = vg.Points(2)
				p.Add(trend)
			}
		}
		return encode(p, opts)
	})
}

// GroupedBar draws side-by-side bars for each category, one bar per series.
func GroupedBar(spec *dashboard.ChartSpec, opts Options) ([]byte, error) {
	return timed(spec.ID, func() ([]byte, error) {
		p := newPlot(spec)
		if len(spec.Categories) == 0 {
			return encode(p, opts)
		}

		n := len(spec.Series)
		width := vg.Points(60 / float64(max(n, 1)))
		for i, s := range spec.Series {
			values := make(plotter.Values, len(spec.Categories))
			for _, pt := range s.Points {
				if idx := int(pt.X); idx >= 0 && idx < len(values) {
					values[idx] = pt.Y
				}
			}
			bars, err := plotter.NewBarChart(values, width)
			if err != nil {
				return nil, fmt.Errorf("render %s series %q: %w", spec.ID, s.Name, err)
			}
			bars.Color = plotutil.Color(i)
			bars.LineStyle.Width = vg.Length(0)
			bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * width
			p.Add(bars)
			p.Legend.Add(s.Name, bars)
		}
		p.NominalX(spec.Categories...)
		return encode(p, opts)
	})
}

func newPlot(spec *dashboard.ChartSpec) *plot.Plot {
	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(13)
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func toXYs(points []dashboard.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt.X
		xys[i].Y = pt.Y
	}
	return xys
}

func encode(p *plot.Plot, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("render: create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func timed(chart string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	data, err := fn()
	metrics.RecordChartRender(chart, time.Since(start), err)
	return data, err
}
