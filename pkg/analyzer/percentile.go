package analyzer

import (
	"math"
	"sort"
)

// PercentileValue pairs a requested percentile with its computed value.
type PercentileValue struct {
	Percentile float64 `json:"percentile"`
	Value      float64 `json:"value"`
}

// Percentiles computes nearest-rank percentiles over sample: the sorted
// sample is indexed at ceil(p/100*n)-1, clamped to the valid range. Results
// come back in the order requested. An empty sample yields zero values
// rather than an error, since "no data" is a reportable outcome.
func Percentiles(sample []float64, percentiles []float64) []PercentileValue {
	results := make([]PercentileValue, len(percentiles))
	for i, p := range percentiles {
		results[i] = PercentileValue{Percentile: p}
	}
	if len(sample) == 0 {
		return results
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	for i, p := range percentiles {
		results[i].Value = nearestRank(sorted, p)
	}
	return results
}

// nearestRank indexes an ascending-sorted sample at ceil(p/100*n)-1.
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
