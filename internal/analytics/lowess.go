// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultLowessFrac is the share of points in each local fit.
	DefaultLowessFrac = 2.0 / 3.0
	// DefaultLowessIterations is the number of robustifying passes.
	DefaultLowessIterations = 3
)

// Lowess fits a locally weighted linear regression through (x, y). It
// returns the x values sorted ascending and the smoothed y at each of them.
// Local weights are tricube over the nearest ceil(frac*n) points; each
// robustifying pass reweights points with the bisquare of their residual
// scaled by six median absolute residuals.
func Lowess(x, y []float64, frac float64, iterations int) ([]float64, []float64) {
	n := len(x)
	if n == 0 || len(y) != n {
		return []float64{}, []float64{}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, idx := range order {
		xs[i] = x[idx]
		ys[i] = y[idx]
	}

	if n == 1 {
		return xs, []float64{ys[0]}
	}

	k := int(math.Ceil(frac * float64(n)))
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	fitted := make([]float64, n)
	robust := make([]float64, n)
	for i := range robust {
		robust[i] = 1
	}
	weights := make([]float64, n)
	residuals := make([]float64, n)

	for pass := 0; pass <= iterations; pass++ {
		lo := 0
		for i := 0; i < n; i++ {
			// Slide the k-nearest window [lo, lo+k) towards xs[i].
			for lo+k < n && xs[i]-xs[lo] > xs[lo+k]-xs[i] {
				lo++
			}
			hi := lo + k
			h := math.Max(xs[i]-xs[lo], xs[hi-1]-xs[i])

			wx, wy, ww := xs[lo:hi], ys[lo:hi], weights[lo:hi]
			var total float64
			for j := range wx {
				d := math.Abs(wx[j] - xs[i])
				if h > 0 {
					ww[j] = tricube(d/h) * robust[lo+j]
				} else if d == 0 {
					ww[j] = robust[lo+j]
				} else {
					ww[j] = 0
				}
				total += ww[j]
			}
			fitted[i] = localFit(wx, wy, ww, total, xs[i], ys[i])
		}

		if pass == iterations {
			break
		}

		for i := range residuals {
			residuals[i] = math.Abs(ys[i] - fitted[i])
		}
		s := median(residuals)
		if s <= 1e-12*meanAbs(ys) {
			break
		}
		for i := range robust {
			robust[i] = bisquare((ys[i] - fitted[i]) / (6 * s))
		}
	}

	return xs, fitted
}

// localFit evaluates the weighted least squares line at x0. Degenerate
// windows (no weight or no spread in x) fall back to the weighted mean.
// w is rescaled in place to sum to len(w); stat treats weights as
// frequencies and divides by their sum minus one.
func localFit(x, y, w []float64, total, x0, y0 float64) float64 {
	if total <= 0 {
		return y0
	}
	scale := float64(len(w)) / total
	for j := range w {
		w[j] *= scale
	}
	alpha, beta := stat.LinearRegression(x, y, w, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return stat.Mean(y, w)
	}
	return alpha + beta*x0
}

func tricube(u float64) float64 {
	if u >= 1 {
		return 0
	}
	t := 1 - u*u*u
	return t * t * t
}

func bisquare(u float64) float64 {
	if math.Abs(u) >= 1 {
		return 0
	}
	t := 1 - u*u
	return t * t
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

func meanAbs(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += math.Abs(x)
	}
	return sum / float64(len(v))
}
