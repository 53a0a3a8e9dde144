// Package models defines core data structures for trend series, analysis results, and query log entries.
package models

import "time"

// DateLayout is the day-granularity layout used for every TrendPoint date.
const DateLayout = "2006-01-02"

// TrendPoint is one sample of interest level on one day or month.
type TrendPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// NewTrendPoint builds a point from a timestamp, normalizing the date to YYYY-MM-DD
// and clamping negative values to zero.
func NewTrendPoint(t time.Time, value int) TrendPoint {
	if value < 0 {
		value = 0
	}
	return TrendPoint{Date: t.Format(DateLayout), Value: value}
}

// TrendSeries is a chronologically ordered sequence of points.
type TrendSeries []TrendPoint

// Values returns the point values in order.
func (s TrendSeries) Values() []int {
	out := make([]int, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Average returns the mean value, or 0 for an empty series.
func (s TrendSeries) Average() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum int
	for _, p := range s {
		sum += p.Value
	}
	return float64(sum) / float64(len(s))
}

// Peak returns the first point holding the maximum value.
func (s TrendSeries) Peak() (TrendPoint, bool) {
	if len(s) == 0 {
		return TrendPoint{}, false
	}
	peak := s[0]
	for _, p := range s[1:] {
		if p.Value > peak.Value {
			peak = p
		}
	}
	return peak, true
}

// RelatedQuery is a search term the provider reports alongside the keyword.
// Value is the provider's relative score; Rising marks breakout terms.
type RelatedQuery struct {
	Query  string `json:"query"`
	Value  int    `json:"value"`
	Rising bool   `json:"rising,omitempty"`
}
