// Package sentiment estimates positive/neutral/negative distributions for text.
package sentiment

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/pkg/utils"
)

// Estimator maps text to a distribution summing to models.SentimentScale.
type Estimator interface {
	Estimate(text string) models.SentimentDistribution
	Method() string
}

// Resolver applies the configured estimator, or the simulated one when the text carries no signal.
type Resolver struct {
	Primary Estimator
	Empty   Estimator
}

// Estimate returns the distribution and the method that produced it.
func (r *Resolver) Estimate(text string) (models.SentimentDistribution, string) {
	if strings.TrimSpace(text) == "" && r.Empty != nil {
		return r.Empty.Estimate(text), r.Empty.Method()
	}
	return r.Primary.Estimate(text), r.Primary.Method()
}

// Simulated draws a random distribution. It ignores its input.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated seeds a PCG source. Seed 0 picks a random seed.
func NewSimulated(seed uint64) *Simulated {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulated{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Method returns models.SentimentSimulated.
func (s *Simulated) Method() string { return models.SentimentSimulated }

// Estimate draws positive ~ U(0,1), negative ~ U(0,1-positive), neutral = the remainder.
func (s *Simulated) Estimate(string) models.SentimentDistribution {
	s.mu.Lock()
	pos := s.rng.Float64()
	neg := s.rng.Float64() * (1 - pos)
	s.mu.Unlock()
	return distribution(pos, 1-pos-neg, neg)
}

func distribution(pos, neu, neg float64) models.SentimentDistribution {
	p := utils.Apportion([]float64{pos, neu, neg}, models.SentimentScale, 1)
	return models.SentimentDistribution{Positive: p[0], Neutral: p[1], Negative: p[2]}
}
