// Package trends fetches interest-over-time series and synthesizes fallback series
// when the provider is unavailable.
package trends

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/trendlens/internal/models"
)

// FailureReason classifies why a fetch produced no usable series.
type FailureReason string

const (
	ReasonUnreachable FailureReason = "unreachable"
	ReasonEmpty       FailureReason = "empty"
	ReasonMalformed   FailureReason = "malformed"
	ReasonTimeout     FailureReason = "timeout"
	ReasonRateLimited FailureReason = "rate_limited"
	ReasonDisabled    FailureReason = "disabled"
)

// Failure is the error side of an Outcome.
type Failure struct {
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %v", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Outcome is the explicit result of a fetch: a non-empty series, or a Failure.
type Outcome struct {
	Series  models.TrendSeries
	Related []models.RelatedQuery
	Failure *Failure
}

// OK reports whether the outcome carries usable data.
func (o Outcome) OK() bool {
	return o.Failure == nil && len(o.Series) > 0
}

// Succeeded builds a successful outcome. An empty series is reported as ReasonEmpty.
func Succeeded(series models.TrendSeries, related []models.RelatedQuery) Outcome {
	if len(series) == 0 {
		return Failed(ReasonEmpty, errors.New("provider returned no points"))
	}
	return Outcome{Series: series, Related: related}
}

// Failed builds a failed outcome.
func Failed(reason FailureReason, err error) Outcome {
	return Outcome{Failure: &Failure{Reason: reason, Err: err}}
}

// Source fetches a trailing-year interest series for a keyword.
type Source interface {
	Name() string
	Fetch(ctx context.Context, keyword string) Outcome
}

// Disabled is a Source that always fails; the pipeline then serves synthetic data.
type Disabled struct{}

// Name returns the source name.
func (Disabled) Name() string { return "disabled" }

// Fetch always reports ReasonDisabled.
func (Disabled) Fetch(context.Context, string) Outcome {
	return Failed(ReasonDisabled, errors.New("trend source disabled by configuration"))
}
