package trends

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hyperjump/trendlens/internal/models"
	"github.com/hyperjump/trendlens/pkg/utils"
)

type sample struct {
	at    time.Time
	value int
}

// monthly averages samples per calendar month and keeps the trailing months.
// Provider series are weekly; fewer than months distinct months is treated as malformed.
func monthly(samples []sample, months int) (models.TrendSeries, error) {
	type bucket struct {
		start time.Time
		sum   int
		n     int
	}
	buckets := make(map[time.Time]*bucket)
	for _, s := range samples {
		start := time.Date(s.at.Year(), s.at.Month(), 1, 0, 0, 0, 0, time.UTC)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{start: start}
			buckets[start] = b
		}
		b.sum += s.value
		b.n++
	}
	if len(buckets) < months {
		return nil, fmt.Errorf("series covers %d months, need %d", len(buckets), months)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })
	ordered = ordered[len(ordered)-months:]

	series := make(models.TrendSeries, 0, months)
	for _, b := range ordered {
		avg := int(math.Round(float64(b.sum) / float64(b.n)))
		series = append(series, models.NewTrendPoint(b.start, utils.ClampMin(avg, 0)))
	}
	return series, nil
}
