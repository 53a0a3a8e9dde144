// Package metrics provides Prometheus metrics for trendlens.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts completed analyses by trend provenance.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendlens",
			Name:      "analyses_total",
			Help:      "Total number of keyword analyses",
		},
		[]string{"source"},
	)

	// AnalysisDuration measures one keyword analysis end to end.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trendlens",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of keyword analyses in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// SourceFailuresTotal counts trend provider failures that fell back to synthetic data.
	SourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendlens",
			Name:      "source_failures_total",
			Help:      "Total number of trend source failures",
		},
		[]string{"reason"},
	)

	// KeywordErrorsTotal counts batch keywords rejected or failed.
	KeywordErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trendlens",
			Name:      "keyword_errors_total",
			Help:      "Total number of keywords that produced an error entry",
		},
	)

	// QueryLogWritesTotal counts query log writes by status (ok, error, dropped).
	QueryLogWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trendlens",
			Name:      "query_log_writes_total",
			Help:      "Total number of query log writes",
		},
		[]string{"status"},
	)
)

// RecordAnalysis records a completed analysis.
func RecordAnalysis(source string, duration float64) {
	AnalysesTotal.WithLabelValues(source).Inc()
	AnalysisDuration.WithLabelValues(source).Observe(duration)
}

// RecordSourceFailure records a trend source failure.
func RecordSourceFailure(reason string) {
	SourceFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordKeywordError records a per-keyword failure in a batch.
func RecordKeywordError() {
	KeywordErrorsTotal.Inc()
}

// RecordQueryLogWrite records a query log write outcome.
func RecordQueryLogWrite(status string) {
	QueryLogWritesTotal.WithLabelValues(status).Inc()
}
