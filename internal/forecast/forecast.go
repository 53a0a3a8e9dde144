// Package forecast extrapolates short interest series with an ordinary-least-squares line.
package forecast

import "math"

// Horizon is the number of points Predict extrapolates.
const Horizon = 3

// epsilon absorbs float error before flooring so exact fits land on whole numbers.
const epsilon = 1e-9

// Fit returns slope m and intercept b of y = m*x + b over x = 0..n-1.
// ok is false when fewer than two values are given.
func Fit(values []int) (m, b float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		y := float64(v)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return 0, sumY / fn, true
	}
	m = (fn*sumXY - sumX*sumY) / den
	b = (sumY - m*sumX) / fn
	return m, b, true
}

// Slope returns the fitted slope, or 0 when the series is too short.
func Slope(values []int) float64 {
	m, _, _ := Fit(values)
	return m
}

// Predict returns the next Horizon points after values, each floored and clamped to >= 0.
// It returns an empty slice when fewer than two values are given.
func Predict(values []int) []int {
	m, b, ok := Fit(values)
	if !ok {
		return []int{}
	}
	n := len(values)
	out := make([]int, Horizon)
	for i := 0; i < Horizon; i++ {
		y := m*float64(n+i) + b
		v := int(math.Floor(y + epsilon))
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}
