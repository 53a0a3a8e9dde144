// Package summarize extracts the most central sentences of a text with TextRank.
package summarize

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/pkg/utils"
)

const (
	DefaultSentences     = 2
	DefaultFallbackChars = 150

	damping    = 0.85
	iterations = 50
	tolerance  = 1e-6
)

var (
	ErrEmptyText   = errors.New("empty text")
	ErrInvalidText = errors.New("text is not valid UTF-8")
	ErrNoTokens    = errors.New("no scorable tokens")
)

// Outcome is the result of Rank. Err is set when ranking could not run.
type Outcome struct {
	Summary string
	Err     error
}

// OK reports whether ranking produced a summary.
func (o Outcome) OK() bool { return o.Err == nil }

// tokenAnalyzer is the part of a bleve analyzer the ranker uses.
type tokenAnalyzer interface {
	Analyze(input []byte) analysis.TokenStream
}

// Summarizer ranks sentences and falls back to truncation when ranking fails.
type Summarizer struct {
	analyzer      tokenAnalyzer
	sentences     int
	fallbackChars int
	logger        *zap.Logger
}

// New returns a summarizer using the English analyzer for tokenization.
func New(sentences, fallbackChars int, logger *zap.Logger) *Summarizer {
	if sentences <= 0 {
		sentences = DefaultSentences
	}
	if fallbackChars <= 0 {
		fallbackChars = DefaultFallbackChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Summarizer{
		sentences:     sentences,
		fallbackChars: fallbackChars,
		logger:        logger,
	}
	if a := bleve.NewIndexMapping().AnalyzerNamed(en.AnalyzerName); a != nil {
		s.analyzer = a
	}
	return s
}

// Summarize returns the top sentences of text, or its truncated prefix when ranking fails.
// It never panics.
func (s *Summarizer) Summarize(text string) string {
	out := s.Rank(text, s.sentences)
	if out.OK() {
		return out.Summary
	}
	s.logger.Debug("summarization fell back to truncation", zap.Error(out.Err))
	return utils.Truncate(strings.ToValidUTF8(text, ""), s.fallbackChars)
}

// Rank returns the n highest-scoring sentences joined by a single space, in source order.
func (s *Summarizer) Rank(text string, n int) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("ranking panicked: %v", r)}
		}
	}()

	if !utf8.ValidString(text) {
		return Outcome{Err: ErrInvalidText}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Err: ErrEmptyText}
	}
	if n <= 0 {
		n = DefaultSentences
	}

	sentences := SplitSentences(text)
	bags := make([]map[string]struct{}, len(sentences))
	scorable := 0
	for i, sent := range sentences {
		bags[i] = s.terms(sent)
		if len(bags[i]) > 0 {
			scorable++
		}
	}
	if scorable == 0 {
		return Outcome{Err: ErrNoTokens}
	}
	if len(sentences) <= n {
		return Outcome{Summary: strings.Join(sentences, " ")}
	}

	scores := textRank(bags)
	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	top := order[:n]
	sort.Ints(top)

	picked := make([]string, 0, n)
	for _, i := range top {
		picked = append(picked, sentences[i])
	}
	return Outcome{Summary: strings.Join(picked, " ")}
}

func (s *Summarizer) terms(sentence string) map[string]struct{} {
	bag := make(map[string]struct{})
	if s.analyzer == nil {
		for _, f := range strings.FieldsFunc(strings.ToLower(sentence), notWordRune) {
			bag[f] = struct{}{}
		}
		return bag
	}
	for _, tok := range s.analyzer.Analyze([]byte(sentence)) {
		if len(tok.Term) > 0 {
			bag[string(tok.Term)] = struct{}{}
		}
	}
	return bag
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

// textRank runs weighted PageRank over the sentence similarity graph.
func textRank(bags []map[string]struct{}) []float64 {
	n := len(bags)
	weights := make([][]float64, n)
	outSum := make([]float64, n)
	for i := range weights {
		weights[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := similarity(bags[i], bags[j])
			weights[i][j], weights[j][i] = w, w
			outSum[i] += w
			outSum[j] += w
		}
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1
	}
	next := make([]float64, n)
	for iter := 0; iter < iterations; iter++ {
		delta := 0.0
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j < n; j++ {
				if j == i || weights[j][i] == 0 || outSum[j] == 0 {
					continue
				}
				sum += weights[j][i] / outSum[j] * scores[j]
			}
			next[i] = (1 - damping) + damping*sum
			delta += math.Abs(next[i] - scores[i])
		}
		scores, next = next, scores
		if delta < tolerance {
			break
		}
	}
	return scores
}

// similarity is the TextRank overlap |A∩B| / (log|A| + log|B|). Two one-term
// sentences have a zero denominator; their raw overlap is used instead.
func similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	overlap := 0
	for t := range a {
		if _, ok := b[t]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	denom := math.Log(float64(len(a))) + math.Log(float64(len(b)))
	if denom <= 0 {
		return float64(overlap)
	}
	return float64(overlap) / denom
}
