// Package stats implements the statistics kernel shared by the benchmark,
// regression, consistency, sensitivity, hallucination, and golden-dataset
// agents (spec §4.C): percentiles, mean/stddev, Welch's t-test,
// Mann-Whitney U, Cohen's d, confidence intervals, and histogram binning.
//
// Empty-input policy: every reducer here returns 0 and never fails; the
// caller decides whether zero is meaningful.
package stats

import (
	"math"
	"sort"
)

// Percentile returns the "nearest-rank" percentile p (0..100) of values.
// P(p) = sorted[clamp(ceil(p/100 * n) - 1, 0, n-1)] for n > 0, else 0.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance (Σ(x-μ)²/n).
func Variance(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	mu := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mu
		sum += d * d
	}
	return sum / float64(n)
}

// Stddev returns the population standard deviation.
func Stddev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Min returns the minimum value, or 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the maximum value, or 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// HistogramBin is one bucket of a histogram.
type HistogramBin struct {
	LowerBound float64
	UpperBound float64
	Count      int
}

// Histogram bins values into numBins equal-width buckets spanning
// [min(values), max(values)]. Returns nil for an empty slice or
// numBins <= 0.
func Histogram(values []float64, numBins int) []HistogramBin {
	if len(values) == 0 || numBins <= 0 {
		return nil
	}
	lo, hi := Min(values), Max(values)
	width := (hi - lo) / float64(numBins)
	bins := make([]HistogramBin, numBins)
	for i := range bins {
		bins[i].LowerBound = lo + float64(i)*width
		bins[i].UpperBound = lo + float64(i+1)*width
	}
	if width == 0 {
		// All values identical: dump everything in the single bin.
		bins[0].Count = len(values)
		return bins
	}
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	return bins
}
