package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode"

	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/internal/models"
)

//go:embed lexicon.txt
var defaultLexicon string

const (
	boosterIncrement = 0.293
	negationScalar   = -0.74
	// Sentiment before "but" is damped, after it amplified.
	butBefore = 0.5
	butAfter  = 1.5
	lookback  = 3
)

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nobody": {}, "nothing": {}, "neither": {},
	"nor": {}, "without": {}, "cannot": {}, "can't": {}, "don't": {}, "doesn't": {}, "didn't": {},
	"isn't": {}, "aren't": {}, "wasn't": {}, "weren't": {}, "won't": {}, "wouldn't": {},
	"shouldn't": {}, "couldn't": {}, "hardly": {}, "barely": {}, "rarely": {},
}

// boosters scale the next sentiment word up (positive) or down (negative).
var boosters = map[string]float64{
	"absolutely": boosterIncrement, "completely": boosterIncrement, "extremely": boosterIncrement,
	"highly": boosterIncrement, "hugely": boosterIncrement, "incredibly": boosterIncrement,
	"really": boosterIncrement, "so": boosterIncrement, "totally": boosterIncrement,
	"very": boosterIncrement, "most": boosterIncrement, "more": boosterIncrement,
	"deeply": boosterIncrement, "especially": boosterIncrement,
	"slightly": -boosterIncrement, "somewhat": -boosterIncrement, "barely": -boosterIncrement,
	"kind": -boosterIncrement, "little": -boosterIncrement, "marginally": -boosterIncrement,
	"partly": -boosterIncrement, "less": -boosterIncrement,
}

// Lexicon scores text against a valence dictionary with negation, booster and "but" rules.
// The dictionary can be swapped at runtime with Reload.
type Lexicon struct {
	words  atomic.Pointer[map[string]float64]
	logger *zap.Logger
}

// NewLexicon builds an estimator from the embedded dictionary.
func NewLexicon(logger *zap.Logger) *Lexicon {
	if logger == nil {
		logger = zap.NewNop()
	}
	words, err := ParseLexicon(strings.NewReader(defaultLexicon))
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	l := &Lexicon{logger: logger}
	l.words.Store(&words)
	return l
}

// Method returns models.SentimentLexicon.
func (l *Lexicon) Method() string { return models.SentimentLexicon }

// Size returns the number of dictionary entries.
func (l *Lexicon) Size() int { return len(*l.words.Load()) }

// Reload merges the lexicon file at path over the embedded dictionary. On error the
// current dictionary is kept.
func (l *Lexicon) Reload(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	extra, err := ParseLexicon(f)
	if err != nil {
		return fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	merged, _ := ParseLexicon(strings.NewReader(defaultLexicon))
	for w, v := range extra {
		merged[w] = v
	}
	l.words.Store(&merged)
	l.logger.Info("sentiment lexicon loaded", zap.String("path", path), zap.Int("entries", len(merged)))
	return nil
}

// ParseLexicon reads VADER-format lines: token, TAB, mean valence, then optional columns.
// Blank lines and lines starting with '#' are skipped.
func ParseLexicon(r io.Reader) (map[string]float64, error) {
	words := make(map[string]float64)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			fields = strings.Fields(text)
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: want token and valence", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		words[strings.ToLower(strings.TrimSpace(fields[0]))] = v
	}
	return words, sc.Err()
}

// Estimate scores text. Text with no lexicon hits is 100% neutral.
func (l *Lexicon) Estimate(text string) models.SentimentDistribution {
	words := *l.words.Load()
	tokens := tokenize(text)
	valences := make([]float64, len(tokens))
	// modifiers carry no sentiment of their own and are left out of the neutral count
	modifier := make([]bool, len(tokens))
	butAt := -1
	for i, tok := range tokens {
		if tok == "but" && butAt < 0 {
			butAt = i
			modifier[i] = true
			continue
		}
		if _, ok := boosters[tok]; ok {
			modifier[i] = true
			continue
		}
		v, ok := lookup(words, tok)
		if !ok {
			continue
		}
		for back := 1; back <= lookback && i-back >= 0; back++ {
			prev := tokens[i-back]
			if inc, ok := boosters[prev]; ok {
				scale := 1 - 0.05*float64(back-1)
				if v < 0 {
					inc = -inc
				}
				v += inc * scale
			}
			if _, ok := negations[prev]; ok {
				v *= negationScalar
			}
		}
		valences[i] = v
	}
	if butAt >= 0 {
		for i := range valences {
			if i < butAt {
				valences[i] *= butBefore
			} else if i > butAt {
				valences[i] *= butAfter
			}
		}
	}

	var pos, neg, neu float64
	for i, v := range valences {
		switch {
		case modifier[i]:
		case v > 0:
			pos += v + 1
		case v < 0:
			neg += v - 1
		default:
			neu++
		}
	}
	return distribution(pos, neu, math.Abs(neg))
}

func lookup(words map[string]float64, tok string) (float64, bool) {
	if v, ok := words[tok]; ok {
		return v, true
	}
	for _, suffix := range []string{"ing", "ed", "es", "s", "ly"} {
		stem := strings.TrimSuffix(tok, suffix)
		if stem == tok || len(stem) < 3 {
			continue
		}
		if v, ok := words[stem]; ok {
			return v, true
		}
		if v, ok := words[stem+"e"]; ok {
			return v, true
		}
	}
	return 0, false
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '’'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(strings.ReplaceAll(f, "’", "'"), "'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
