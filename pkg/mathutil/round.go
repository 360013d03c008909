package mathutil

import "math"

// Round rounds val to the given number of decimals. NaN and infinities are
// returned unchanged.
func Round(val float64, decimals int) float64 {
	if !IsValid(val) {
		return val
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(val*p) / p
}

// IsZero checks if a value is within tolerance of zero
func IsZero(val, tolerance float64) bool {
	return math.Abs(val) < tolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}
