package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/internal/news"
	"github.com/hyperjump/trendlens/internal/sentiment"
	"github.com/hyperjump/trendlens/internal/summarize"
	"github.com/hyperjump/trendlens/internal/trends"
)

type fakeSource struct {
	outcome trends.Outcome
	panicOn string
}

func (f *fakeSource) Name() string { return models.SourceGoogleTrends }

func (f *fakeSource) Fetch(_ context.Context, keyword string) trends.Outcome {
	if keyword == f.panicOn {
		panic("boom")
	}
	return f.outcome
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *fakeRecorder) Record(_ context.Context, requestID, keyword string, _ *models.AnalysisResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, keyword)
}

func (r *fakeRecorder) keywords() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

type fakeNews struct {
	headlines []news.Headline
	err       error
}

func (f *fakeNews) Headlines(context.Context, string) ([]news.Headline, error) {
	return f.headlines, f.err
}

type fixedSentiment struct{ texts []string }

func (f *fixedSentiment) Estimate(text string) (models.SentimentDistribution, string) {
	f.texts = append(f.texts, text)
	return models.SentimentDistribution{Positive: 20, Neutral: 70, Negative: 10}, models.SentimentLexicon
}

func liveSeries() models.TrendSeries {
	var s models.TrendSeries
	for m := 1; m <= 12; m++ {
		s = append(s, models.NewTrendPoint(time.Date(2025, time.Month(m), 1, 0, 0, 0, 0, time.UTC), 10*m))
	}
	return s
}

func newPipeline(src trends.Source, rec Recorder, opts ...func(*Options)) *Pipeline {
	o := Options{
		Source:     src,
		Fallback:   trends.NewGenerator(3, 2024),
		Summarizer: summarize.New(2, 150, nil),
		Sentiment:  &sentiment.Resolver{Primary: sentiment.NewLexicon(nil), Empty: sentiment.NewSimulated(1)},
		Recorder:   rec,
		Forecast:   true,
		Workers:    2,
		Now:        func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	for _, fn := range opts {
		fn(&o)
	}
	return New(o)
}

func TestAnalyze_LiveData(t *testing.T) {
	src := &fakeSource{outcome: trends.Succeeded(liveSeries(), []models.RelatedQuery{{Query: "golang jobs", Value: 80}})}
	rec := &fakeRecorder{}
	p := newPipeline(src, rec)

	res, err := p.Analyze(context.Background(), "  golang ")
	require.NoError(t, err)
	assert.Equal(t, "golang", res.Keyword)
	assert.False(t, res.Synthetic)
	assert.Equal(t, models.SourceGoogleTrends, res.Source)
	require.Len(t, res.TrendData, 12)
	assert.Equal(t, []int{130, 140, 150}, res.Forecast)
	assert.Len(t, res.RelatedQueries, 1)
	assert.Equal(t, models.SentimentScale, res.Sentiment.Total())
	assert.Equal(t, models.SentimentLexicon, res.SentimentMethod)
	assert.NotEmpty(t, res.Summary)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), res.AnalyzedAt)
	assert.Equal(t, []string{"golang"}, rec.keywords())
}

func TestAnalyze_FallbackWhenSourceFails(t *testing.T) {
	src := &fakeSource{outcome: trends.Failed(trends.ReasonTimeout, errors.New("slow"))}
	p := newPipeline(src, nil)

	res, err := p.Analyze(context.Background(), "rust")
	require.NoError(t, err)
	assert.True(t, res.Synthetic)
	assert.Equal(t, models.SourceSynthetic, res.Source)
	require.Len(t, res.TrendData, 12)
	for _, pt := range res.TrendData {
		assert.GreaterOrEqual(t, pt.Value, 0)
		assert.True(t, strings.HasPrefix(pt.Date, "2024-"))
	}
	assert.Len(t, res.Forecast, 3)
}

func TestAnalyze_ForecastDisabled(t *testing.T) {
	src := &fakeSource{outcome: trends.Succeeded(liveSeries(), nil)}
	p := newPipeline(src, nil, func(o *Options) { o.Forecast = false })

	res, err := p.Analyze(context.Background(), "golang")
	require.NoError(t, err)
	assert.Nil(t, res.Forecast)
}

func TestAnalyze_InvalidKeyword(t *testing.T) {
	rec := &fakeRecorder{}
	p := newPipeline(&fakeSource{outcome: trends.Succeeded(liveSeries(), nil)}, rec)

	_, err := p.Analyze(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrEmptyKeyword)
	_, err = p.Analyze(context.Background(), "bad\x00input")
	assert.ErrorIs(t, err, models.ErrInvalidKeyword)
	assert.Empty(t, rec.keywords())
}

func TestAnalyze_SentimentUsesHeadlines(t *testing.T) {
	est := &fixedSentiment{}
	headlines := []news.Headline{{Title: "Go wins award"}, {Title: "Go adoption grows"}}
	p := newPipeline(&fakeSource{outcome: trends.Succeeded(liveSeries(), nil)}, nil, func(o *Options) {
		o.Sentiment = est
		o.News = &fakeNews{headlines: headlines}
	})

	res, err := p.Analyze(context.Background(), "golang")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go wins award", "Go adoption grows"}, res.Headlines)
	require.Len(t, est.texts, 1)
	assert.Equal(t, "Go wins award\nGo adoption grows", est.texts[0])
}

func TestAnalyze_SentimentFallsBackToKeyword(t *testing.T) {
	est := &fixedSentiment{}
	p := newPipeline(&fakeSource{outcome: trends.Succeeded(liveSeries(), nil)}, nil, func(o *Options) {
		o.Sentiment = est
		o.News = &fakeNews{err: errors.New("feed down")}
	})

	res, err := p.Analyze(context.Background(), "golang")
	require.NoError(t, err)
	assert.Empty(t, res.Headlines)
	assert.Equal(t, []string{"golang"}, est.texts)
}

func TestAnalyzeMany_IsolatesBadKeywords(t *testing.T) {
	rec := &fakeRecorder{}
	src := &fakeSource{outcome: trends.Failed(trends.ReasonUnreachable, errors.New("down")), panicOn: "explode"}
	p := newPipeline(src, rec)

	resp := p.AnalyzeMany(context.Background(), []string{"ai", "bad\x00input", "explode", "crypto", "ai"})
	require.Len(t, resp, 4)

	for _, kw := range []string{"ai", "crypto"} {
		entry := resp[kw]
		require.NotNil(t, entry.Result, kw)
		assert.Empty(t, entry.Error)
		assert.Len(t, entry.Result.TrendData, 12)
		assert.Equal(t, models.SentimentScale, entry.Result.Sentiment.Total())
	}
	assert.Nil(t, resp["bad\x00input"].Result)
	assert.Contains(t, resp["bad\x00input"].Error, "invalid keyword")
	assert.Nil(t, resp["explode"].Result)
	assert.NotEmpty(t, resp["explode"].Error)

	assert.ElementsMatch(t, []string{"ai", "crypto"}, rec.keywords())
}

func TestAnalyzeMany_KeepsCommasInsideKeywords(t *testing.T) {
	src := &fakeSource{outcome: trends.Succeeded(liveSeries(), nil)}
	p := newPipeline(src, nil)

	resp := p.AnalyzeMany(context.Background(), []string{"1,000 dollars", "a"})
	keys := make([]string, 0, len(resp))
	for k := range resp {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"1,000 dollars", "a"}, keys)
	require.NotNil(t, resp["1,000 dollars"].Result)
	assert.Equal(t, "1,000 dollars", resp["1,000 dollars"].Result.Keyword)
}

type leadSentence struct{}

func (leadSentence) Summarize(text string) string {
	return summarize.SplitSentences(text)[0]
}

func TestAnalyze_SummaryKeepsPunctuatedKeywordWhole(t *testing.T) {
	src := &fakeSource{outcome: trends.Succeeded(liveSeries(), nil)}
	for _, kw := range []string{"Dr. Who", "what?", "wow!"} {
		t.Run(kw, func(t *testing.T) {
			p := newPipeline(src, nil, func(o *Options) { o.Summarizer = leadSentence{} })
			res, err := p.Analyze(context.Background(), kw)
			require.NoError(t, err)
			assert.Equal(t, "The trend for '"+kw+"' shows 12 months of data.", res.Summary)
		})
	}

	p := newPipeline(src, nil)
	res, err := p.Analyze(context.Background(), "Dr. Who")
	require.NoError(t, err)
	assert.NotContains(t, res.Summary, keywordMark)
	assert.NotEmpty(t, res.Summary)
}

func TestDescribe(t *testing.T) {
	res := &models.AnalysisResult{
		TrendData: models.TrendSeries{
			{Date: "2024-01-01", Value: 10},
			{Date: "2024-02-01", Value: 50},
			{Date: "2024-03-01", Value: 30},
		},
		Forecast:  []int{40, 50, 60},
		Synthetic: true,
	}
	got := Describe("go", res, 10)
	assert.Equal(t, 1, strings.Count(got, "'go'"))
	assert.Contains(t, got, "shows 3 months of data")
	assert.Contains(t, got, "Average interest over the period is 30.0")
	assert.Contains(t, got, "rose from 10 to 30")
	assert.Contains(t, got, "Latest interest value is 30")
	assert.Contains(t, got, "peaked in February 2024 at 50")
	assert.Contains(t, got, "projects rising interest, reaching 60 within 3 months")
	assert.Contains(t, got, "synthetic estimates")

	flat := Describe("go", &models.AnalysisResult{TrendData: models.TrendSeries{{Date: "2024-01-01", Value: 5}, {Date: "2024-02-01", Value: 5}}}, 0)
	assert.Contains(t, flat, "held steady at 5")
	assert.NotContains(t, flat, "forecast")
	assert.NotContains(t, flat, "synthetic")

	assert.Equal(t, "The trend for 'go' shows 0 months of data.", Describe("go", &models.AnalysisResult{}, 0))
}
