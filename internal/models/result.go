package models

import (
	"encoding/json"
	"time"
)

// Provenance of a trend series.
const (
	SourceGoogleTrends = "google_trends"
	SourceSynthetic    = "synthetic"
)

// Sentiment estimation methods.
const (
	SentimentLexicon   = "lexicon"
	SentimentSimulated = "simulated"
)

// SentimentScale is the fixed total every SentimentDistribution sums to.
const SentimentScale = 100

// SentimentDistribution holds integer percentages that always sum to SentimentScale.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total returns positive + neutral + negative.
func (d SentimentDistribution) Total() int {
	return d.Positive + d.Neutral + d.Negative
}

// AnalysisResult is the combined output of one pipeline run for one keyword.
type AnalysisResult struct {
	Keyword         string                `json:"keyword"`
	TrendData       TrendSeries           `json:"trend_data"`
	Forecast        []int                 `json:"forecast,omitempty"`
	RelatedQueries  []RelatedQuery        `json:"related_queries,omitempty"`
	Sentiment       SentimentDistribution `json:"sentiment"`
	SentimentMethod string                `json:"sentiment_method"`
	Summary         string                `json:"summary"`
	Headlines       []string              `json:"headlines,omitempty"`
	// Synthetic is true when TrendData came from the fallback generator rather than the provider.
	Synthetic  bool      `json:"synthetic"`
	Source     string    `json:"source"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// BatchEntry is one slot of a batch response: either a full result or an error message.
type BatchEntry struct {
	Result *AnalysisResult
	Error  string
}

// MarshalJSON renders {"error": ...} for failed entries and the bare result otherwise.
func (e BatchEntry) MarshalJSON() ([]byte, error) {
	if e.Error != "" || e.Result == nil {
		msg := e.Error
		if msg == "" {
			msg = "no result"
		}
		return json.Marshal(map[string]string{"error": msg})
	}
	return json.Marshal(e.Result)
}

// UnmarshalJSON accepts either shape produced by MarshalJSON.
func (e *BatchEntry) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Error != "" {
		e.Error = probe.Error
		e.Result = nil
		return nil
	}
	var res AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	e.Result = &res
	e.Error = ""
	return nil
}

// BatchResponse maps each requested keyword to its entry.
type BatchResponse map[string]BatchEntry
