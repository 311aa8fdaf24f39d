// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/tomtom215/rentalscope/internal/dashboard"
)

// matrixGrid adapts a square cell matrix to plotter.GridXYZ. Row 0 is drawn
// at the top.
type matrixGrid struct {
	cells [][]float64
}

func (g matrixGrid) Dims() (c, r int) {
	n := len(g.cells)
	return n, n
}

func (g matrixGrid) Z(c, r int) float64 {
	n := len(g.cells)
	return g.cells[n-1-r][c]
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// Heatmap draws the correlation matrix with the Moreland smooth blue-red
// diverging palette over [-1, 1] and writes each cell's annotation on top.
// An undefined matrix renders as an empty titled chart.
func Heatmap(spec *dashboard.ChartSpec, opts Options) ([]byte, error) {
	return timed(spec.ID, func() ([]byte, error) {
		p := plot.New()
		p.Title.Text = spec.Title
		p.Title.TextStyle.Font.Size = vg.Points(13)

		n := len(spec.Categories)
		if n == 0 || len(spec.Cells) != n || spec.Empty() {
			return encode(p, opts)
		}

		cells := make([][]float64, n)
		for i, row := range spec.Cells {
			if len(row) != n {
				return nil, fmt.Errorf("render %s: row %d has %d cells, want %d", spec.ID, i, len(row), n)
			}
			cells[i] = make([]float64, n)
			for j, v := range row {
				cells[i][j] = float64(v)
			}
		}

		cmap := moreland.SmoothBlueRed()
		cmap.SetMin(-1)
		cmap.SetMax(1)
		hm := plotter.NewHeatMap(matrixGrid{cells: cells}, cmap.Palette(255))
		hm.Min, hm.Max = -1, 1
		hm.NaN = color.Gray{Y: 230}
		p.Add(hm)

		if len(spec.Annotations) == n {
			labels := plotter.XYLabels{}
			for i := 0; i < n; i++ {
				for j := 0; j < n && j < len(spec.Annotations[i]); j++ {
					labels.XYs = append(labels.XYs, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
					labels.Labels = append(labels.Labels, spec.Annotations[i][j])
				}
			}
			lbl, err := plotter.NewLabels(labels)
			if err != nil {
				return nil, fmt.Errorf("render %s annotations: %w", spec.ID, err)
			}
			for i := range lbl.TextStyle {
				lbl.TextStyle[i].XAlign = -0.5
				lbl.TextStyle[i].YAlign = -0.5
				lbl.TextStyle[i].Font.Size = vg.Points(8)
			}
			p.Add(lbl)
		}

		p.NominalX(spec.Categories...)
		ticks := make([]plot.Tick, n)
		for i, name := range spec.Categories {
			ticks[i] = plot.Tick{Value: float64(n - 1 - i), Label: name}
		}
		p.Y.Tick.Marker = plot.ConstantTicks(ticks)
		return encode(p, opts)
	})
}
