package trends

import (
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/pkg/utils"
)

// FallbackPoints is the length of every synthetic series.
const FallbackPoints = 12

// Generator synthesizes a plausible monthly series when the provider fails.
// Each call draws from a fresh generator seeded by Seed and the keyword length, so
// keywords of equal length share a shape and concurrent calls share no state.
type Generator struct {
	Seed int64
	Year int
}

// NewGenerator returns a generator using the given seed and placeholder year.
func NewGenerator(seed int64, year int) *Generator {
	if year <= 0 {
		year = 2024
	}
	return &Generator{Seed: seed, Year: year}
}

// Generate returns FallbackPoints monthly points, values >= 0, dated YYYY-MM-01 in the placeholder year.
func (g *Generator) Generate(keyword string) models.TrendSeries {
	length := utf8.RuneCountInString(keyword)
	r := rand.New(rand.NewPCG(uint64(g.Seed), uint64(length)))

	base := 5*length + uniform(r, 10, 40)
	series := make(models.TrendSeries, 0, FallbackPoints)
	for month := 1; month <= FallbackPoints; month++ {
		date := time.Date(g.Year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		series = append(series, models.NewTrendPoint(date, utils.ClampMin(base+uniform(r, -20, 20), 0)))
	}
	return series
}

// uniform draws an integer in [lo, hi].
func uniform(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
