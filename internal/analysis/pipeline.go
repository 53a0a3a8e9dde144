// Package analysis combines trend retrieval, forecasting, summarization and sentiment
// into one result per keyword.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/trendlens/internal/forecast"
	"github.com/hyperjump/trendlens/internal/metrics"
	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/internal/news"
	"github.com/hyperjump/trendlens/internal/trends"
)

const defaultWorkers = 4

// Recorder receives every completed result. Implementations must not block.
type Recorder interface {
	Record(ctx context.Context, requestID, keyword string, result *models.AnalysisResult)
}

// HeadlineSource supplies recent headlines used as the sentiment corpus.
type HeadlineSource interface {
	Headlines(ctx context.Context, keyword string) ([]news.Headline, error)
}

// Summarizer condenses a description. It must not fail.
type Summarizer interface {
	Summarize(text string) string
}

// SentimentResolver scores text and names the method used.
type SentimentResolver interface {
	Estimate(text string) (models.SentimentDistribution, string)
}

// Options wires a Pipeline. Source, Fallback, Summarizer and Sentiment are required.
type Options struct {
	Source     trends.Source
	Fallback   *trends.Generator
	Summarizer Summarizer
	Sentiment  SentimentResolver
	News       HeadlineSource
	Recorder   Recorder
	Logger     *zap.Logger
	Forecast   bool
	Workers    int
	Now        func() time.Time
}

// Pipeline runs analyses. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	source     trends.Source
	fallback   *trends.Generator
	summarizer Summarizer
	sentiment  SentimentResolver
	news       HeadlineSource
	recorder   Recorder
	logger     *zap.Logger
	forecast   bool
	workers    int
	now        func() time.Time
}

// New builds a Pipeline from opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		source:     opts.Source,
		fallback:   opts.Fallback,
		summarizer: opts.Summarizer,
		sentiment:  opts.Sentiment,
		news:       opts.News,
		recorder:   opts.Recorder,
		logger:     opts.Logger,
		forecast:   opts.Forecast,
		workers:    opts.Workers,
		now:        opts.Now,
	}
	if p.source == nil {
		p.source = trends.Disabled{}
	}
	if p.fallback == nil {
		p.fallback = trends.NewGenerator(0, 0)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.workers <= 0 {
		p.workers = defaultWorkers
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Analyze validates keyword and runs one analysis. The only errors are validation errors;
// provider failures are absorbed by the fallback generator.
func (p *Pipeline) Analyze(ctx context.Context, keyword string) (*models.AnalysisResult, error) {
	keyword = strings.TrimSpace(keyword)
	if err := models.ValidateKeyword(keyword); err != nil {
		return nil, err
	}
	return p.run(ctx, uuid.NewString(), keyword), nil
}

// AnalyzeMany analyzes each distinct keyword on a bounded worker pool. Invalid keywords
// and panics produce an error entry for that keyword only.
func (p *Pipeline) AnalyzeMany(ctx context.Context, keywords []string) models.BatchResponse {
	keywords = models.NormalizeKeywords(keywords)
	requestID := uuid.NewString()
	entries := make([]models.BatchEntry, len(keywords))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, kw := range keywords {
		g.Go(func() error {
			entries[i] = p.runEntry(ctx, requestID, kw)
			return nil
		})
	}
	_ = g.Wait()

	resp := make(models.BatchResponse, len(keywords))
	for i, kw := range keywords {
		resp[kw] = entries[i]
	}
	return resp
}

func (p *Pipeline) runEntry(ctx context.Context, requestID, keyword string) (entry models.BatchEntry) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("analysis panicked", zap.String("keyword", keyword), zap.Any("panic", r))
			metrics.RecordKeywordError()
			entry = models.BatchEntry{Error: "internal error while analyzing keyword"}
		}
	}()
	if err := models.ValidateKeyword(keyword); err != nil {
		metrics.RecordKeywordError()
		return models.BatchEntry{Error: err.Error()}
	}
	return models.BatchEntry{Result: p.run(ctx, requestID, keyword)}
}

func (p *Pipeline) run(ctx context.Context, requestID, keyword string) *models.AnalysisResult {
	start := time.Now()
	logger := p.logger.With(zap.String("request_id", requestID), zap.String("keyword", keyword))

	result := &models.AnalysisResult{Keyword: keyword, AnalyzedAt: p.now().UTC()}

	out := p.source.Fetch(ctx, keyword)
	if out.OK() {
		result.TrendData = out.Series
		result.RelatedQueries = out.Related
		result.Source = p.source.Name()
	} else {
		reason := trends.ReasonEmpty
		var err error
		if out.Failure != nil {
			reason, err = out.Failure.Reason, out.Failure
		}
		logger.Warn("trend source unavailable, using synthetic series",
			zap.String("reason", string(reason)), zap.Error(err))
		metrics.RecordSourceFailure(string(reason))
		result.TrendData = p.fallback.Generate(keyword)
		result.Source = models.SourceSynthetic
		result.Synthetic = true
	}

	values := result.TrendData.Values()
	var slope float64
	if p.forecast {
		result.Forecast = forecast.Predict(values)
		slope = forecast.Slope(values)
	}

	// Sentence splitting runs on the placeholder so punctuation inside the keyword cannot cut a sentence.
	summary := p.summarizer.Summarize(Describe(keywordMark, result, slope))
	result.Summary = strings.ReplaceAll(summary, keywordMark, keyword)

	text := keyword
	if p.news != nil {
		headlines, err := p.news.Headlines(ctx, keyword)
		if err != nil {
			logger.Debug("headline corpus unavailable", zap.Error(err))
		} else if corpus := news.Corpus(headlines); strings.TrimSpace(corpus) != "" {
			text = corpus
			result.Headlines = news.Titles(headlines)
		}
	}
	result.Sentiment, result.SentimentMethod = p.sentiment.Estimate(text)

	metrics.RecordAnalysis(result.Source, time.Since(start).Seconds())
	logger.Debug("analysis complete", zap.String("source", result.Source), zap.Duration("elapsed", time.Since(start)))

	if p.recorder != nil {
		p.recorder.Record(ctx, requestID, keyword, result)
	}
	return result
}

// keywordMark stands in for the keyword while a description is summarized.
const keywordMark = "{keyword}"

// Describe renders the factual description the summary is drawn from. The keyword is
// quoted in the first sentence only.
func Describe(keyword string, r *models.AnalysisResult, slope float64) string {
	series := r.TrendData
	var b strings.Builder
	fmt.Fprintf(&b, "The trend for '%s' shows %d months of data.", keyword, len(series))
	if len(series) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, " Average interest over the period is %.1f.", series.Average())

	first, last := series[0].Value, series[len(series)-1].Value
	switch {
	case last > first:
		fmt.Fprintf(&b, " Interest rose from %d to %d.", first, last)
	case last < first:
		fmt.Fprintf(&b, " Interest fell from %d to %d.", first, last)
	default:
		fmt.Fprintf(&b, " Interest held steady at %d.", last)
	}
	fmt.Fprintf(&b, " Latest interest value is %d.", last)
	if peak, ok := series.Peak(); ok {
		fmt.Fprintf(&b, " Interest peaked in %s at %d.", monthLabel(peak.Date), peak.Value)
	}
	if len(r.Forecast) > 0 {
		fmt.Fprintf(&b, " The linear forecast projects %s interest, reaching %d within %d months.",
			direction(slope), r.Forecast[len(r.Forecast)-1], len(r.Forecast))
	}
	if r.Synthetic {
		b.WriteString(" Live trend data was unavailable, so these figures are synthetic estimates.")
	}
	return b.String()
}

func direction(slope float64) string {
	switch {
	case slope > 0.5:
		return "rising"
	case slope < -0.5:
		return "falling"
	default:
		return "stable"
	}
}

func monthLabel(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2006")
}
