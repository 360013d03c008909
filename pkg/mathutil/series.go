// Package mathutil provides numeric helpers for mortality series.
//
// A series is a []float64 with one entry per reporting period. Absent
// readings are stored as NaN, never as an implicit zero.
package mathutil

import (
	"math"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"gonum.org/v1/gonum/floats"
)

// IsValid reports whether v is a usable reading (neither NaN nor infinite).
func IsValid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SanitizeArray returns a copy of xs with NaN entries replaced by 0 so they
// cannot poison a running sum.
func SanitizeArray(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return out
}

// CumulativeSum returns the running sum of xs. NaN entries count as 0.
func CumulativeSum(xs []float64) []float64 {
	clean := SanitizeArray(xs)
	return floats.CumSum(make([]float64, len(clean)), clean)
}

// Total returns the sum over all entries of xs, NaN entries counting as 0.
func Total(xs []float64) float64 {
	return floats.Sum(SanitizeArray(xs))
}

// LastValidValue scans xs from the end and returns the first entry that is
// not NaN, or 0 when there is none. Used when xs is already cumulative.
func LastValidValue(xs []float64) float64 {
	for i := len(xs) - 1; i >= 0; i-- {
		if !math.IsNaN(xs[i]) {
			return xs[i]
		}
	}
	return 0
}

// RelativeExcess returns value / baseline, or NaN when the baseline is
// missing or too close to zero for the ratio to mean anything.
func RelativeExcess(value, baseline float64) float64 {
	if math.IsNaN(baseline) || math.Abs(baseline) < constants.MinBaselineThreshold {
		return math.NaN()
	}
	return value / baseline
}

// Mean returns the average of the valid entries of xs and whether any were found.
func Mean(xs []float64) (float64, bool) {
	sum := 0.0
	n := 0
	for _, v := range xs {
		if !IsValid(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), false
	}
	return sum / float64(n), true
}

// At returns xs[i], or NaN when i is out of range.
func At(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return math.NaN()
	}
	return xs[i]
}

// Slice returns xs[start:end] clamped to the bounds of xs. The result is a copy.
func Slice(xs []float64, start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(xs) {
		end = len(xs)
	}
	if start >= end {
		return []float64{}
	}
	out := make([]float64, end-start)
	copy(out, xs[start:end])
	return out
}
