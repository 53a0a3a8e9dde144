package utils

import (
	"math"
	"sort"
)

// ClampMin returns v, or min when v is below it.
func ClampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}

// Apportion scales non-negative weights to integers that sum exactly to total,
// using largest-remainder rounding. Negative or NaN weights count as zero.
// If every weight is zero, the whole total goes to the index given by fallback.
func Apportion(weights []float64, total int, fallback int) []int {
	out := make([]int, len(weights))
	if len(weights) == 0 {
		return out
	}
	var sum float64
	clean := make([]float64, len(weights))
	for i, w := range weights {
		if w > 0 && !math.IsInf(w, 1) {
			clean[i] = w
			sum += w
		}
	}
	if sum == 0 {
		if fallback >= 0 && fallback < len(out) {
			out[fallback] = total
		}
		return out
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, len(clean))
	assigned := 0
	for i, w := range clean {
		exact := w / sum * float64(total)
		floor := math.Floor(exact)
		out[i] = int(floor)
		assigned += out[i]
		rems[i] = remainder{idx: i, frac: exact - floor}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < total; i++ {
		out[rems[i%len(rems)].idx]++
		assigned++
	}
	return out
}
